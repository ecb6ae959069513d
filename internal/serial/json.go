package serial

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/roach88/covert/internal/value"
)

// jsonAPI writes compact JSON without HTML escaping and reads numbers as
// json.Number so integers and floats stay distinct.
var jsonAPI = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

// jsonTagged fixes the field order of a tagged node to $t, $d.
type jsonTagged struct {
	T string `json:"$t"`
	D []any  `json:"$d"`
}

func writeJSON(tree any) ([]byte, error) {
	out, err := jsonAPI.Marshal(toJSON(tree))
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return out, nil
}

func toJSON(n any) any {
	switch x := n.(type) {
	case value.Int:
		return json.Number(strconv.FormatInt(int64(x), 10))
	case value.Float:
		return json.Number(floatLiteral(float64(x)))
	case []any:
		return toJSONSeq(x)
	case *tagged:
		return jsonTagged{T: x.typ, D: toJSONSeq(x.data)}
	}
	return n
}

func toJSONSeq(xs []any) []any {
	out := make([]any, 0, len(xs))
	for _, x := range xs {
		out = append(out, toJSON(x))
	}
	return out
}

func readJSON(blob []byte) (any, error) {
	var raw any
	if err := jsonAPI.Unmarshal(blob, &raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return fromJSON(raw)
}

func fromJSON(raw any) (any, error) {
	switch x := raw.(type) {
	case nil, bool, string:
		return x, nil
	case json.Number:
		return parseNumber(string(x))
	case float64:
		return value.Float(x), nil
	case []any:
		out := make([]any, 0, len(x))
		for _, el := range x {
			n, err := fromJSON(el)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case map[string]any:
		typ, okT := x["$t"].(string)
		data, okD := x["$d"].([]any)
		if !okT || !okD || len(x) != 2 {
			return malformed{reason: "plain mapping without $t and $d"}, nil
		}
		conv, err := fromJSON(data)
		if err != nil {
			return nil, err
		}
		return &tagged{typ: typ, data: conv.([]any)}, nil
	}
	return nil, fmt.Errorf("decode json: unexpected %T", raw)
}

// parseNumber reads an integer literal as Int and anything else as Float.
// Integers beyond int64 fall back to Float.
func parseNumber(lit string) (any, error) {
	if !strings.ContainsAny(lit, ".eE") {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return value.Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, fmt.Errorf("decode json: number %q: %w", lit, err)
	}
	return value.Float(f), nil
}
