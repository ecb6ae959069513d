package serial

import (
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/covert/internal/value"
)

// decoder rebuilds a value graph from the node tree.
type decoder struct {
	funcs *value.FuncTable

	// refs maps each decoded container path to its value. Containers are
	// registered before their children so cyclic references resolve.
	// The first container decoded at a path keeps it.
	refs map[string]value.Value
}

func (d *decoder) decode(n any, path string) (value.Value, error) {
	switch x := n.(type) {
	case nil:
		return value.Null{}, nil
	case bool:
		return value.Bool(x), nil
	case string:
		return value.String(x), nil
	case value.Int:
		return x, nil
	case value.Float:
		return x, nil
	case []any:
		arr := value.NewArray()
		d.register(path, arr)
		return arr, d.fillArray(arr, x, path)
	case *tagged:
		return d.decodeTagged(x, path)
	case malformed:
		return nil, &UnexpectedNodeError{Path: path, Reason: x.reason}
	}
	return nil, &UnexpectedNodeError{Path: path, Reason: fmt.Sprintf("unsupported node %T", n)}
}

func (d *decoder) decodeTagged(t *tagged, path string) (value.Value, error) {
	switch t.typ {
	case TypeRef:
		ref, err := d.stringAt(t, 0, path)
		if err != nil {
			return nil, err
		}
		v, ok := d.refs[ref]
		if !ok {
			return nil, &InvalidReferenceError{Ref: ref, Path: path}
		}
		return v, nil

	case TypeRegExp:
		src, err := d.stringAt(t, 0, path)
		if err != nil {
			return nil, err
		}
		flags := ""
		if len(t.data) > 1 {
			if flags, err = d.stringAt(t, 1, path); err != nil {
				return nil, err
			}
		}
		re := value.NewRegExp(src, flags)
		d.register(path, re)
		return re, nil

	case TypeDate:
		if len(t.data) == 0 {
			return nil, d.unexpected(t, path, "missing time value")
		}
		var date *value.Date
		switch ms := t.data[0].(type) {
		case nil:
			date = value.InvalidDate()
		case value.Int:
			date = value.DateFromMillis(int64(ms))
		case value.Float:
			if math.IsNaN(float64(ms)) {
				date = value.InvalidDate()
			} else {
				date = value.DateFromMillis(int64(ms))
			}
		default:
			return nil, d.unexpected(t, path, "time value is not a number")
		}
		d.register(path, date)
		return date, nil

	case TypeMap:
		m := value.NewMap()
		d.register(path, m)
		for i, raw := range t.data {
			pair, ok := raw.([]any)
			if !ok || len(pair) != 2 {
				return nil, d.unexpected(t, path, fmt.Sprintf("entry %d is not a [key, value] pair", i))
			}
			k, err := d.mapKey(pair[0], path)
			if err != nil {
				return nil, err
			}
			v, err := d.decode(pair[1], childPath(path, value.Segment(k)))
			if err != nil {
				return nil, err
			}
			m.Put(k, v)
		}
		return m, nil

	case TypeSet:
		s := value.NewSet()
		d.register(path, s)
		for i, raw := range t.data {
			v, err := d.decode(raw, childPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			s.Add(v)
		}
		return s, nil

	case TypeObject:
		obj := value.NewObject()
		d.register(path, obj)
		if err := d.fillEntries(obj, t.data, path); err != nil {
			return nil, err
		}
		return obj, nil

	case TypeArray:
		arr := value.NewArray()
		d.register(path, arr)
		if len(t.data) == 0 {
			return arr, nil
		}
		elems, ok := t.data[0].([]any)
		if !ok {
			return nil, d.unexpected(t, path, "elements are not a sequence")
		}
		if err := d.fillArray(arr, elems, path); err != nil {
			return nil, err
		}
		if len(t.data) > 1 {
			entries, ok := t.data[1].([]any)
			if !ok {
				return nil, d.unexpected(t, path, "entries are not a sequence")
			}
			if err := d.fillEntries(arr.Props(), entries, path); err != nil {
				return nil, err
			}
		}
		return arr, nil

	case TypeFunction:
		name, err := d.stringAt(t, 0, path)
		if err != nil {
			return nil, err
		}
		fn, ok := d.funcs.New(name)
		if !ok {
			return nil, &UnknownFunctionError{Name: name, Path: path}
		}
		d.register(path, fn)
		if len(t.data) > 1 {
			entries, ok := t.data[1].([]any)
			if !ok {
				return nil, d.unexpected(t, path, "entries are not a sequence")
			}
			if err := d.fillEntries(fn.Props(), entries, path); err != nil {
				return nil, err
			}
		}
		return fn, nil
	}

	return nil, &UnexpectedNodeError{Path: path, Type: t.typ, Reason: "unknown node type"}
}

func (d *decoder) register(path string, v value.Value) {
	if _, ok := d.refs[path]; !ok {
		d.refs[path] = v
	}
}

func (d *decoder) fillArray(arr *value.Array, elems []any, path string) error {
	for i, raw := range elems {
		v, err := d.decode(raw, childPath(path, strconv.Itoa(i)))
		if err != nil {
			return err
		}
		arr.Push(v)
	}
	return nil
}

// fillEntries defines [key, value] pairs on bag in listed order.
func (d *decoder) fillEntries(bag *value.Object, entries []any, path string) error {
	for i, raw := range entries {
		pair, ok := raw.([]any)
		if !ok || len(pair) != 2 {
			return &UnexpectedNodeError{Path: path, Reason: fmt.Sprintf("entry %d is not a [key, value] pair", i)}
		}
		key, ok := pair[0].(string)
		if !ok {
			return &UnexpectedNodeError{Path: path, Reason: fmt.Sprintf("entry %d key is not a string", i)}
		}
		v, err := d.decode(pair[1], childPath(path, key))
		if err != nil {
			return err
		}
		if err := bag.DefineProperty(key, value.DataDescriptor(v)); err != nil {
			return fmt.Errorf("decode %q: %w", childPath(path, key), err)
		}
	}
	return nil
}

// mapKey decodes a map key, which must be a scalar node.
func (d *decoder) mapKey(n any, path string) (value.Value, error) {
	switch n.(type) {
	case nil, bool, string, value.Int, value.Float:
		return d.decode(n, path)
	}
	return nil, &UnexpectedNodeError{Path: path, Type: TypeMap, Reason: "map key is not a scalar"}
}

func (d *decoder) stringAt(t *tagged, i int, path string) (string, error) {
	if i >= len(t.data) {
		return "", d.unexpected(t, path, fmt.Sprintf("missing field %d", i))
	}
	s, ok := t.data[i].(string)
	if !ok {
		return "", d.unexpected(t, path, fmt.Sprintf("field %d is not a string", i))
	}
	return s, nil
}

func (d *decoder) unexpected(t *tagged, path, reason string) error {
	return &UnexpectedNodeError{Path: path, Type: t.typ, Reason: reason}
}
