package track

import (
	"fmt"
	"iter"

	"github.com/roach88/covert/internal/value"
)

// MapProxy wraps a keyed collection.
//
// Entry reads wrap values at the map's path extended by the key segment.
// set, delete and clear report one change per affected key. Plain property
// access (Get, Set, Delete) goes to the map's property bag and is diffed
// like an object property.
type MapProxy struct {
	proxyBase
	target *value.Map
}

// Target returns the raw map.
func (p *MapProxy) Target() value.Value {
	return p.target
}

// Get reads a plain property of the map.
func (p *MapProxy) Get(key value.Value) (value.Value, error) {
	return trackedGet(p.ctx, "map", p.target, p, key)
}

// Set writes a plain property of the map.
func (p *MapProxy) Set(key, v value.Value) error {
	return trackedSet(p.ctx, "map", p.target, p, key, v)
}

// Delete removes a plain property of the map.
func (p *MapProxy) Delete(key value.Value) (bool, error) {
	return trackedDelete(p.ctx, "map", p.target, key)
}

// Call dispatches a collection method by name. get, entries, values and
// forEach wrap what they hand out; set, delete and clear report changes;
// anything else runs untracked on the raw map.
func (p *MapProxy) Call(method string, args ...value.Value) (value.Value, error) {
	switch method {
	case "get":
		return p.Lookup(argAt(args, 0))
	case "set":
		if err := p.Put(argAt(args, 0), argAt(args, 1)); err != nil {
			return nil, err
		}
		return p, nil
	case "delete":
		ok, err := p.Remove(argAt(args, 0))
		return value.Bool(ok), err
	case "clear":
		return value.Undefined{}, p.Clear()
	case "entries":
		out := value.NewArray()
		for e, err := range p.All() {
			if err != nil {
				return nil, err
			}
			out.Push(value.NewArray(e.Key, e.Value))
		}
		return out, nil
	case "values":
		vals, err := p.Values()
		if err != nil {
			return nil, err
		}
		return value.NewArray(vals...), nil
	case "forEach":
		fn, ok := value.Unwrap(argAt(args, 0)).(*value.Function)
		if !ok {
			return nil, fmt.Errorf("forEach: %w", value.ErrNotCallable)
		}
		return value.Undefined{}, p.ForEach(func(v, k value.Value) error {
			_, err := fn.Invoke(p, v, k, p)
			return err
		})
	}
	return p.target.Call(method, unwrapAll(args)...)
}

// Lookup returns the wrapped value stored under key.
func (p *MapProxy) Lookup(key value.Value) (value.Value, error) {
	key = value.Unwrap(value.Normalize(key))
	v, _ := p.target.Lookup(key)
	p.ctx.trace("map", "get", p.entryPath(key))
	return p.ctx.wrap(v, p.target, key)
}

// Has reports whether key is present.
func (p *MapProxy) Has(key value.Value) bool {
	return p.target.Has(key)
}

// Size returns the number of entries.
func (p *MapProxy) Size() int {
	return p.target.Len()
}

// Put stores v under key and reports (path.key, old, new) when the stored
// value changed by identity.
func (p *MapProxy) Put(key, v value.Value) error {
	key = value.Unwrap(value.Normalize(key))
	v = value.Unwrap(value.Normalize(v))
	if p.ctx.isDisposed() {
		p.target.Put(key, v)
		return nil
	}

	old, _ := p.target.Lookup(key)
	p.target.Put(key, v)
	cur, _ := p.target.Lookup(key)

	path := p.entryPath(key)
	p.ctx.trace("map", "set", path)
	if value.Same(old, cur) {
		return nil
	}
	if value.IsContainer(old) {
		p.ctx.detach(path)
	}
	return p.ctx.emit(Event{Path: path, Target: p.target, Property: key, Op: OpSet, Method: "set", Old: old, New: cur})
}

// Remove deletes key and reports (path.key, old, undefined) if it was
// present.
func (p *MapProxy) Remove(key value.Value) (bool, error) {
	key = value.Unwrap(value.Normalize(key))
	if p.ctx.isDisposed() {
		return p.target.Remove(key), nil
	}

	old, existed := p.target.Lookup(key)
	p.target.Remove(key)
	if !existed || p.target.Has(key) {
		return false, nil
	}

	path := p.entryPath(key)
	p.ctx.trace("map", "delete", path)
	p.ctx.detach(path)
	return true, p.ctx.emit(Event{Path: path, Target: p.target, Property: key, Op: OpDelete, Method: "delete", Old: old, New: value.Undefined{}})
}

// Clear removes every entry, reporting one change per entry in insertion
// order.
func (p *MapProxy) Clear() error {
	if p.ctx.isDisposed() {
		p.target.Clear()
		return nil
	}

	pending := p.target.Entries()
	p.target.Clear()

	base := p.ctx.pathOf(p.target)
	p.ctx.trace("map", "clear", base)
	p.ctx.detachChildren(base)
	for _, e := range pending {
		ev := Event{
			Path:     value.ConcatPath(base, value.Segment(e.Key)),
			Target:   p.target,
			Property: e.Key,
			Op:       OpClear,
			Method:   "clear",
			Old:      e.Value,
			New:      value.Undefined{},
		}
		if err := p.ctx.emit(ev); err != nil {
			return err
		}
	}
	return nil
}

// All iterates a snapshot of the entries taken when iteration starts. Keys
// are raw; values are wrapped as they are yielded.
func (p *MapProxy) All() iter.Seq2[value.Entry, error] {
	return func(yield func(value.Entry, error) bool) {
		for _, e := range p.target.Entries() {
			v, err := p.ctx.wrap(e.Value, p.target, e.Key)
			if err != nil {
				yield(value.Entry{Key: e.Key}, err)
				return
			}
			if !yield(value.Entry{Key: e.Key, Value: v}, nil) {
				return
			}
		}
	}
}

// Values returns the wrapped values in insertion order.
func (p *MapProxy) Values() ([]value.Value, error) {
	vals := make([]value.Value, 0, p.target.Len())
	for e, err := range p.All() {
		if err != nil {
			return nil, err
		}
		vals = append(vals, e.Value)
	}
	return vals, nil
}

// ForEach calls fn with each wrapped value and its key.
func (p *MapProxy) ForEach(fn func(v, k value.Value) error) error {
	for e, err := range p.All() {
		if err != nil {
			return err
		}
		if err := fn(e.Value, e.Key); err != nil {
			return err
		}
	}
	return nil
}

func (p *MapProxy) entryPath(key value.Value) string {
	return value.ConcatPath(p.ctx.pathOf(p.target), value.Segment(key))
}
