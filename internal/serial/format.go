package serial

import (
	"fmt"
	"strings"

	"github.com/roach88/covert/internal/value"
)

// Format selects the textual encoding of the node tree.
type Format string

const (
	// FormatJSON is compact JSON without HTML escaping.
	FormatJSON Format = "json"

	// FormatYAML is block-style YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name; the empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (expected json or yaml)", s)
}

// Node type tags.
const (
	TypeRef      = "Ref"
	TypeRegExp   = "RegExp"
	TypeDate     = "Date"
	TypeMap      = "Map"
	TypeSet      = "Set"
	TypeObject   = "Object"
	TypeArray    = "Array"
	TypeFunction = "Function"
)

// tagged is a {"$t": typ, "$d": data} node of the format-neutral tree.
//
// The tree holds nil (null), bool, string, value.Int, value.Float, []any,
// *tagged and, on the decode side only, malformed.
type tagged struct {
	typ  string
	data []any
}

// Encode lowers v into a node tree and writes it in format.
// Wrappers anywhere in the graph are unwrapped first.
func Encode(v value.Value, format Format) ([]byte, error) {
	enc := &encoder{format: format, seen: make(map[value.Value]string), owners: make(map[string]value.Value)}
	tree, err := enc.lower(v, "")
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON, "":
		return writeJSON(tree)
	case FormatYAML:
		return writeYAML(tree)
	}
	return nil, fmt.Errorf("encode: unknown format %q", format)
}

// Decode parses blob in format and rebuilds the value graph. Function nodes
// resolve against funcs, which may be nil when the blob holds no functions.
func Decode(blob []byte, format Format, funcs *value.FuncTable) (value.Value, error) {
	var (
		tree any
		err  error
	)
	switch format {
	case FormatJSON, "":
		tree, err = readJSON(blob)
	case FormatYAML:
		tree, err = readYAML(blob)
	default:
		return nil, fmt.Errorf("decode: unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}
	dec := &decoder{funcs: funcs, refs: make(map[string]value.Value)}
	return dec.decode(tree, "")
}

// malformed marks a mapping that is not a well-formed tagged node.
type malformed struct {
	reason string
}
