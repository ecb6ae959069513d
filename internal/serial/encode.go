package serial

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/covert/internal/value"
)

// encoder lowers a value graph into the format-neutral node tree.
type encoder struct {
	format Format

	// seen maps each visited container to the path of its first visit.
	seen map[value.Value]string

	// owners maps each recorded path to the first container visited there,
	// which is the one a decoder binds the path to.
	owners map[string]value.Value
}

var segmentEscaper = strings.NewReplacer(`\`, `\\`, value.PathSeparator, `\`+value.PathSeparator)

// childPath extends a reference path by key. Backslashes and separators in
// key are escaped and an empty key becomes a lone backslash, so distinct
// object keys never share a path.
func childPath(path, key string) string {
	seg := segmentEscaper.Replace(key)
	if seg == "" {
		seg = `\`
	}
	return value.ConcatPath(path, seg)
}

func (e *encoder) lower(v value.Value, path string) (any, error) {
	v = value.Unwrap(value.Normalize(v))

	switch x := v.(type) {
	case value.Undefined, value.Null:
		return nil, nil
	case value.Bool:
		return bool(x), nil
	case value.String:
		return string(x), nil
	case value.Int:
		return x, nil
	case value.Float:
		if e.format != FormatYAML && (math.IsNaN(float64(x)) || math.IsInf(float64(x), 0)) {
			return nil, &UnsupportedValueError{Path: path, Reason: fmt.Sprintf("%v is not representable in %s", float64(x), FormatJSON)}
		}
		return x, nil
	case value.BigInt:
		return nil, &UnsupportedValueError{Path: path, Reason: "bigint"}
	}

	if first, ok := e.seen[v]; ok {
		if e.owners[first] != v {
			return nil, &UnsupportedValueError{Path: path, Reason: fmt.Sprintf("reference target %q shares its path with another value", first)}
		}
		return &tagged{typ: TypeRef, data: []any{first}}, nil
	}
	e.seen[v] = path
	if _, ok := e.owners[path]; !ok {
		e.owners[path] = v
	}

	switch x := v.(type) {
	case *value.RegExp:
		return &tagged{typ: TypeRegExp, data: []any{x.Source(), x.Flags()}}, nil

	case *value.Date:
		ms, ok := x.Millis()
		if !ok {
			return &tagged{typ: TypeDate, data: []any{nil}}, nil
		}
		return &tagged{typ: TypeDate, data: []any{value.Int(ms)}}, nil

	case *value.Array:
		elems := make([]any, 0, x.Len())
		for i, el := range x.Elements() {
			n, err := e.lower(el, childPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			elems = append(elems, n)
		}
		if x.Props().Len() == 0 {
			return elems, nil
		}
		entries, err := e.entries(x.Props(), x, path)
		if err != nil {
			return nil, err
		}
		return &tagged{typ: TypeArray, data: []any{elems, entries}}, nil

	case *value.Map:
		pairs := make([]any, 0, x.Len())
		for _, ent := range x.Entries() {
			k, err := e.mapKey(ent.Key, path)
			if err != nil {
				return nil, err
			}
			n, err := e.lower(ent.Value, childPath(path, value.Segment(ent.Key)))
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, []any{k, n})
		}
		return &tagged{typ: TypeMap, data: pairs}, nil

	case *value.Set:
		members := make([]any, 0, x.Len())
		for i, m := range x.Members() {
			n, err := e.lower(m, childPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			members = append(members, n)
		}
		return &tagged{typ: TypeSet, data: members}, nil

	case *value.Object:
		entries, err := e.entries(x, x, path)
		if err != nil {
			return nil, err
		}
		return &tagged{typ: TypeObject, data: entries}, nil

	case *value.Function:
		entries, err := e.entries(x.Props(), x, path)
		if err != nil {
			return nil, err
		}
		return &tagged{typ: TypeFunction, data: []any{x.Name(), entries}}, nil
	}

	return nil, &UnsupportedValueError{Path: path, Reason: fmt.Sprintf("%T", v)}
}

// entries lowers the enumerable own properties of bag, invoking getters
// with receiver as this, sorted in reverse key order.
func (e *encoder) entries(bag *value.Object, receiver value.Trackable, path string) ([]any, error) {
	var pending []entry
	for k, d := range bag.Properties() {
		if !d.Enumerable {
			continue
		}
		v := d.Value
		if d.IsAccessor() {
			got, err := bag.GetWith(k, receiver)
			if err != nil {
				return nil, fmt.Errorf("serialize %q: %w", childPath(path, k), err)
			}
			v = got
		}
		pending = append(pending, entry{key: k, val: v})
	}
	sortEntries(pending)

	out := make([]any, 0, len(pending))
	for _, ent := range pending {
		n, err := e.lower(ent.val, childPath(path, ent.key))
		if err != nil {
			return nil, err
		}
		out = append(out, []any{ent.key, n})
	}
	return out, nil
}

// mapKey lowers a map key. Keys must be scalars.
func (e *encoder) mapKey(k value.Value, path string) (any, error) {
	if value.IsContainer(k) {
		return nil, &UnsupportedValueError{
			Path:   childPath(path, value.Segment(k)),
			Reason: fmt.Sprintf("%s map key", value.KindOf(k)),
		}
	}
	if _, ok := value.Unwrap(k).(*value.RegExp); ok {
		return nil, &UnsupportedValueError{Path: childPath(path, value.Segment(k)), Reason: "regexp map key"}
	}
	return e.lower(k, path)
}

// floatLiteral formats f so that it always reads back as a float:
// integral values keep a ".0" fraction.
func floatLiteral(f float64) string {
	var s string
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		s = strconv.FormatFloat(f, 'e', -1, 64)
	} else {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
