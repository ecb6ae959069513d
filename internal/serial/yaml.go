package serial

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/covert/internal/value"
)

// writeYAML renders the tree through explicit yaml.Node values so that every
// scalar carries its tag: strings that look like numbers get quoted and
// integral floats keep their fraction.
func writeYAML(tree any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toYAML(tree)); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func toYAML(n any) *yaml.Node {
	switch x := n.(type) {
	case nil:
		return scalarNode("!!null", "null")
	case bool:
		return scalarNode("!!bool", strconv.FormatBool(x))
	case string:
		return scalarNode("!!str", x)
	case value.Int:
		return scalarNode("!!int", strconv.FormatInt(int64(x), 10))
	case value.Float:
		return scalarNode("!!float", yamlFloat(float64(x)))
	case []any:
		return seqNode(x)
	case *tagged:
		return &yaml.Node{
			Kind: yaml.MappingNode,
			Tag:  "!!map",
			Content: []*yaml.Node{
				scalarNode("!!str", "$t"), scalarNode("!!str", x.typ),
				scalarNode("!!str", "$d"), seqNode(x.data),
			},
		}
	}
	return scalarNode("!!null", "null")
}

func scalarNode(tag, text string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: text}
}

// seqNode writes sequences of scalars in flow style, e.g. [b, 1].
func seqNode(xs []any) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	flat := true
	for _, x := range xs {
		child := toYAML(x)
		if child.Kind != yaml.ScalarNode {
			flat = false
		}
		seq.Content = append(seq.Content, child)
	}
	if flat {
		seq.Style = yaml.FlowStyle
	}
	return seq
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	return floatLiteral(f)
}

func readYAML(blob []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &UnexpectedNodeError{Reason: "empty document"}
	}
	return fromYAML(doc.Content[0])
}

func fromYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromYAML(n.Alias)

	case yaml.ScalarNode:
		return yamlScalar(n)

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.MappingNode:
		var (
			typ  string
			data *yaml.Node
			okT  bool
		)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if v.Kind == yaml.AliasNode {
				v = v.Alias
			}
			switch {
			case k.Value == "$t" && v.Kind == yaml.ScalarNode && v.ShortTag() == "!!str":
				typ, okT = v.Value, true
			case k.Value == "$d" && v.Kind == yaml.SequenceNode:
				data = v
			default:
				return malformed{reason: fmt.Sprintf("unexpected key %q at line %d", k.Value, k.Line)}, nil
			}
		}
		if !okT || data == nil {
			return malformed{reason: fmt.Sprintf("plain mapping without $t and $d at line %d", n.Line)}, nil
		}
		conv, err := fromYAML(data)
		if err != nil {
			return nil, err
		}
		return &tagged{typ: typ, data: conv.([]any)}, nil
	}
	return nil, fmt.Errorf("decode yaml: unexpected node kind %d at line %d", n.Kind, n.Line)
}

func yamlScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return value.Int(i), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return value.Float(f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return value.Float(f), nil
	}
	return n.Value, nil
}
