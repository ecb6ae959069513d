package track

import (
	"fmt"
	"iter"

	"github.com/roach88/covert/internal/value"
)

// SetProxy wraps a membership collection. Members are addressed by their
// insertion index, which is re-derived from position after every removal.
type SetProxy struct {
	proxyBase
	target *value.Set
}

// Target returns the raw set.
func (p *SetProxy) Target() value.Value {
	return p.target
}

// Get reads a plain property of the set.
func (p *SetProxy) Get(key value.Value) (value.Value, error) {
	return trackedGet(p.ctx, "set", p.target, p, key)
}

// Set writes a plain property of the set.
func (p *SetProxy) Set(key, v value.Value) error {
	return trackedSet(p.ctx, "set", p.target, p, key, v)
}

// Delete removes a plain property of the set.
func (p *SetProxy) Delete(key value.Value) (bool, error) {
	return trackedDelete(p.ctx, "set", p.target, key)
}

// Call dispatches a collection method by name. add, delete and clear report
// changes; values, keys, entries and forEach wrap the members they hand
// out; anything else runs untracked on the raw set.
func (p *SetProxy) Call(method string, args ...value.Value) (value.Value, error) {
	switch method {
	case "add":
		if err := p.Add(argAt(args, 0)); err != nil {
			return nil, err
		}
		return p, nil
	case "delete":
		ok, err := p.Remove(argAt(args, 0))
		return value.Bool(ok), err
	case "clear":
		return value.Undefined{}, p.Clear()
	case "values", "keys":
		members, err := p.Members()
		if err != nil {
			return nil, err
		}
		return value.NewArray(members...), nil
	case "entries":
		out := value.NewArray()
		for m, err := range p.All() {
			if err != nil {
				return nil, err
			}
			out.Push(value.NewArray(m, m))
		}
		return out, nil
	case "forEach":
		fn, ok := value.Unwrap(argAt(args, 0)).(*value.Function)
		if !ok {
			return nil, fmt.Errorf("forEach: %w", value.ErrNotCallable)
		}
		return value.Undefined{}, p.ForEach(func(m value.Value) error {
			_, err := fn.Invoke(p, m, m, p)
			return err
		})
	}
	return p.target.Call(method, unwrapAll(args)...)
}

// Has reports membership.
func (p *SetProxy) Has(v value.Value) bool {
	return p.target.Has(v)
}

// Size returns the number of members.
func (p *SetProxy) Size() int {
	return p.target.Len()
}

// At returns the wrapped member at insertion index i.
func (p *SetProxy) At(i int) (value.Value, error) {
	return p.ctx.wrap(p.target.At(i), p.target, value.Int(i))
}

// Add inserts v. A new member reports (path.i, undefined, v) where i is its
// insertion index; adding an existing member reports nothing.
func (p *SetProxy) Add(v value.Value) error {
	v = value.Unwrap(value.Normalize(v))
	added, i := p.target.Add(v)
	if !added || p.ctx.isDisposed() {
		return nil
	}
	path := p.memberPath(i)
	p.ctx.trace("set", "add", path)
	return p.ctx.emit(Event{Path: path, Target: p.target, Property: value.Int(i), Op: OpAdd, Method: "add", Old: value.Undefined{}, New: v})
}

// Remove deletes v, reporting (path.i, v, undefined) with i its index
// before removal.
func (p *SetProxy) Remove(v value.Value) (bool, error) {
	v = value.Unwrap(value.Normalize(v))
	if p.ctx.isDisposed() {
		return p.target.Remove(v), nil
	}

	i := p.indexOf(v)
	if i < 0 {
		return false, nil
	}
	old := p.target.At(i)
	p.target.Remove(v)

	path := p.memberPath(i)
	p.ctx.trace("set", "delete", path)
	p.ctx.detachFrom(p.ctx.pathOf(p.target), i)
	return true, p.ctx.emit(Event{Path: path, Target: p.target, Property: value.Int(i), Op: OpDelete, Method: "delete", Old: old, New: value.Undefined{}})
}

// Clear removes every member, reporting one change per member.
func (p *SetProxy) Clear() error {
	if p.ctx.isDisposed() {
		p.target.Clear()
		return nil
	}

	pending := p.target.Members()
	p.target.Clear()

	base := p.ctx.pathOf(p.target)
	p.ctx.trace("set", "clear", base)
	p.ctx.detachChildren(base)
	for i, m := range pending {
		ev := Event{
			Path:     value.ConcatPath(base, value.Segment(value.Int(i))),
			Target:   p.target,
			Property: value.Int(i),
			Op:       OpClear,
			Method:   "clear",
			Old:      m,
			New:      value.Undefined{},
		}
		if err := p.ctx.emit(ev); err != nil {
			return err
		}
	}
	return nil
}

// All iterates a snapshot of the members, wrapping each as it is yielded.
func (p *SetProxy) All() iter.Seq2[value.Value, error] {
	return func(yield func(value.Value, error) bool) {
		for i, m := range p.target.Members() {
			w, err := p.ctx.wrap(m, p.target, value.Int(i))
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(w, nil) {
				return
			}
		}
	}
}

// Members returns the wrapped members in insertion order.
func (p *SetProxy) Members() ([]value.Value, error) {
	out := make([]value.Value, 0, p.target.Len())
	for m, err := range p.All() {
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ForEach calls fn with each wrapped member.
func (p *SetProxy) ForEach(fn func(m value.Value) error) error {
	for m, err := range p.All() {
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// indexOf scans the members in order for v by identity.
func (p *SetProxy) indexOf(v value.Value) int {
	for i, m := range p.target.Members() {
		if value.Same(m, v) {
			return i
		}
	}
	return -1
}

func (p *SetProxy) memberPath(i int) string {
	return value.ConcatPath(p.ctx.pathOf(p.target), value.Segment(value.Int(i)))
}
