package loader

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/covert/internal/value"
)

// Local tags understood by the YAML loader.
const (
	TagDate   = "!date"
	TagRegExp = "!regexp"
	TagMap    = "!map"
	TagSet    = "!set"
	TagFunc   = "!func"

	// TagUndefined marks an absent value, distinct from null.
	TagUndefined = "!undefined"
)

type yamlLoader struct {
	name  string
	funcs *value.FuncTable

	// anchors maps anchored nodes to their loaded value so aliases share it.
	anchors map[*yaml.Node]value.Value
}

func parseYAML(data []byte, name string, funcs *value.FuncTable) (value.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeSyntax, File: name, Message: err.Error()}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &LoadError{Code: ErrCodeSyntax, File: name, Message: "empty document"}
	}

	return FromNode(doc.Content[0], name, funcs)
}

// FromNode loads an already parsed YAML node, such as a value embedded in a
// larger YAML file. name is used in error messages.
func FromNode(n *yaml.Node, name string, funcs *value.FuncTable) (value.Value, error) {
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil, &LoadError{Code: ErrCodeSyntax, File: name, Message: "empty document"}
		}
		n = n.Content[0]
	}
	if n.Kind == 0 {
		return nil, &LoadError{Code: ErrCodeSyntax, File: name, Message: "missing value"}
	}
	l := &yamlLoader{name: name, funcs: funcs, anchors: make(map[*yaml.Node]value.Value)}
	return l.load(n, "")
}

func (l *yamlLoader) load(n *yaml.Node, path string) (value.Value, error) {
	if n.Kind == yaml.AliasNode {
		if v, ok := l.anchors[n.Alias]; ok {
			return v, nil
		}
		return l.load(n.Alias, path)
	}

	switch n.Kind {
	case yaml.MappingNode:
		switch n.Tag {
		case TagMap:
			return l.loadMap(n, path)
		case "", "!!map":
			return l.loadObject(n, path)
		}
	case yaml.SequenceNode:
		switch n.Tag {
		case TagSet:
			return l.loadSet(n, path)
		case TagMap:
			return l.loadMap(n, path)
		case "", "!!seq":
			return l.loadArray(n, path)
		}
	case yaml.ScalarNode:
		v, err := l.scalar(n, path)
		if err != nil {
			return nil, err
		}
		l.anchor(n, v)
		return v, nil
	}
	return nil, l.fail(n, path, ErrCodeUnsupported, fmt.Sprintf("unsupported %s node with tag %q", kindName(n.Kind), n.Tag))
}

// anchor records v for aliases of n. Containers are recorded before their
// children load so a nested alias resolves to the same value.
func (l *yamlLoader) anchor(n *yaml.Node, v value.Value) {
	if n.Anchor != "" {
		l.anchors[n] = v
	}
}

func (l *yamlLoader) loadObject(n *yaml.Node, path string) (value.Value, error) {
	obj := value.NewObject()
	l.anchor(n, obj)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, vn := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, l.fail(k, path, ErrCodeUnsupported, "object keys must be scalars; tag the mapping !map for value keys")
		}
		if k.ShortTag() == "!!merge" {
			return nil, l.fail(k, path, ErrCodeUnsupported, "merge keys are not supported")
		}
		v, err := l.load(vn, value.ConcatPath(path, k.Value))
		if err != nil {
			return nil, err
		}
		if err := obj.Put(k.Value, v); err != nil {
			return nil, l.fail(k, path, ErrCodeUnsupported, err.Error())
		}
	}
	return obj, nil
}

func (l *yamlLoader) loadArray(n *yaml.Node, path string) (value.Value, error) {
	arr := value.NewArray()
	l.anchor(n, arr)
	for i, c := range n.Content {
		v, err := l.load(c, value.ConcatPath(path, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		arr.Push(v)
	}
	return arr, nil
}

// loadMap accepts a mapping with arbitrary keys or a sequence of
// [key, value] pairs.
func (l *yamlLoader) loadMap(n *yaml.Node, path string) (value.Value, error) {
	m := value.NewMap()
	l.anchor(n, m)

	put := func(kn, vn *yaml.Node) error {
		k, err := l.load(kn, path)
		if err != nil {
			return err
		}
		v, err := l.load(vn, value.ConcatPath(path, value.Segment(k)))
		if err != nil {
			return err
		}
		m.Put(k, v)
		return nil
	}

	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			if err := put(n.Content[i], n.Content[i+1]); err != nil {
				return nil, err
			}
		}
		return m, nil
	}
	for i, pair := range n.Content {
		if pair.Kind != yaml.SequenceNode || len(pair.Content) != 2 {
			return nil, l.fail(pair, value.ConcatPath(path, strconv.Itoa(i)), ErrCodeUnsupported, "!map entries must be [key, value] pairs")
		}
		if err := put(pair.Content[0], pair.Content[1]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (l *yamlLoader) loadSet(n *yaml.Node, path string) (value.Value, error) {
	s := value.NewSet()
	l.anchor(n, s)
	for i, c := range n.Content {
		v, err := l.load(c, value.ConcatPath(path, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		s.Add(v)
	}
	return s, nil
}

func (l *yamlLoader) scalar(n *yaml.Node, path string) (value.Value, error) {
	switch n.Tag {
	case TagDate:
		return l.date(n, path)
	case TagRegExp:
		return regexpLiteral(n.Value), nil
	case TagUndefined:
		return value.Undefined{}, nil
	case TagFunc:
		fn, ok := l.funcs.New(n.Value)
		if !ok {
			return nil, l.fail(n, path, ErrCodeUnknownFunction, fmt.Sprintf("function %q is not registered", n.Value))
		}
		return fn, nil
	}

	switch n.ShortTag() {
	case "!!null":
		return value.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, l.fail(n, path, ErrCodeSyntax, err.Error())
		}
		return value.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return value.Int(i), nil
		}
		b, ok := new(big.Int).SetString(strings.ReplaceAll(n.Value, "_", ""), 0)
		if !ok {
			return nil, l.fail(n, path, ErrCodeSyntax, fmt.Sprintf("invalid integer %q", n.Value))
		}
		return value.NewBigInt(b), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, l.fail(n, path, ErrCodeSyntax, err.Error())
		}
		return value.Float(f), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, l.fail(n, path, ErrCodeSyntax, err.Error())
		}
		return value.NewDate(t), nil
	case "!!str":
		return value.String(n.Value), nil
	}
	return nil, l.fail(n, path, ErrCodeUnsupported, fmt.Sprintf("unsupported scalar tag %q", n.Tag))
}

// date accepts epoch milliseconds, an RFC 3339 timestamp or "Invalid Date".
func (l *yamlLoader) date(n *yaml.Node, path string) (value.Value, error) {
	s := strings.TrimSpace(n.Value)
	if s == "Invalid Date" {
		return value.InvalidDate(), nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.DateFromMillis(ms), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, l.fail(n, path, ErrCodeSyntax, fmt.Sprintf("invalid !date %q", n.Value))
	}
	return value.NewDate(t), nil
}

// regexpLiteral splits "/source/flags". Text without slashes is a bare source.
func regexpLiteral(s string) *value.RegExp {
	if len(s) >= 2 && s[0] == '/' {
		if i := strings.LastIndexByte(s, '/'); i > 0 {
			return value.NewRegExp(s[1:i], s[i+1:])
		}
	}
	return value.NewRegExp(s, "")
}

func (l *yamlLoader) fail(n *yaml.Node, path, code, msg string) *LoadError {
	return &LoadError{Code: code, File: l.name, Path: path, Line: n.Line, Column: n.Column, Message: msg}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
