package value

import (
	"fmt"
	"slices"
)

// Array is an ordered list. Deleted or skipped slots are holes: they read
// as Undefined but are not own elements. Non-index keys live in a lazily
// created property bag.
type Array struct {
	elems []Value // nil marks a hole
	props *Object
}

func (*Array) isValue() {}

// NewArray returns an Array holding vals.
func NewArray(vals ...Value) *Array {
	a := &Array{elems: make([]Value, 0, len(vals))}
	for _, v := range vals {
		a.elems = append(a.elems, Normalize(v))
	}
	return a
}

// Len returns the array length.
func (a *Array) Len() int {
	return len(a.elems)
}

// At returns element i, or Undefined for holes and out of range indices.
func (a *Array) At(i int) Value {
	if i < 0 || i >= len(a.elems) || a.elems[i] == nil {
		return Undefined{}
	}
	return a.elems[i]
}

// Has reports whether i holds an element rather than a hole.
func (a *Array) Has(i int) bool {
	return i >= 0 && i < len(a.elems) && a.elems[i] != nil
}

// Elements returns a copy of the elements with holes as Undefined.
func (a *Array) Elements() []Value {
	out := slices.Clone(a.elems)
	for i, e := range out {
		if e == nil {
			out[i] = Undefined{}
		}
	}
	return out
}

// SetAt stores v at i, growing the array with holes if needed.
func (a *Array) SetAt(i int, v Value) {
	for len(a.elems) <= i {
		a.elems = append(a.elems, nil)
	}
	a.elems[i] = Normalize(v)
}

// Push appends vals and returns the new length.
func (a *Array) Push(vals ...Value) int {
	for _, v := range vals {
		a.elems = append(a.elems, Normalize(v))
	}
	return len(a.elems)
}

// Pop removes and returns the last element.
func (a *Array) Pop() Value {
	if len(a.elems) == 0 {
		return Undefined{}
	}
	last := a.At(len(a.elems) - 1)
	a.elems[len(a.elems)-1] = nil
	a.elems = a.elems[:len(a.elems)-1]
	return last
}

// SetLen truncates or extends the array.
func (a *Array) SetLen(n int) error {
	if n < 0 {
		return ErrInvalidLength
	}
	if n <= len(a.elems) {
		clear(a.elems[n:])
		a.elems = a.elems[:n]
		return nil
	}
	for len(a.elems) < n {
		a.elems = append(a.elems, nil)
	}
	return nil
}

// IndexOf returns the first index holding a value identical to v, or -1.
// Holes are skipped.
func (a *Array) IndexOf(v Value) int {
	v = Unwrap(Normalize(v))
	for i, e := range a.elems {
		if e != nil && Same(e, v) {
			return i
		}
	}
	return -1
}

// Includes is IndexOf(v) >= 0, except that holes match Undefined.
func (a *Array) Includes(v Value) bool {
	if a.IndexOf(v) >= 0 {
		return true
	}
	if _, ok := Unwrap(Normalize(v)).(Undefined); ok {
		return slices.Contains(a.elems, nil)
	}
	return false
}

// Props returns the bag of non-index properties.
func (a *Array) Props() *Object {
	if a.props == nil {
		a.props = NewObject()
	}
	return a.props
}

// Get implements Trackable.
func (a *Array) Get(key Value) (Value, error) {
	if i, ok := arrayIndex(key); ok {
		return a.At(i), nil
	}
	k := PropertyKey(key)
	if k == "length" {
		return Int(len(a.elems)), nil
	}
	if a.props == nil {
		return Undefined{}, nil
	}
	return a.props.GetWith(k, a)
}

// Set implements Trackable.
func (a *Array) Set(key, v Value) error {
	v = Unwrap(Normalize(v))
	if i, ok := arrayIndex(key); ok {
		a.SetAt(i, v)
		return nil
	}
	k := PropertyKey(key)
	if k == "length" {
		n, ok := arrayIndex(v)
		if !ok {
			return fmt.Errorf("length %s: %w", PropertyKey(v), ErrInvalidLength)
		}
		return a.SetLen(n)
	}
	return a.Props().SetWith(k, v, a)
}

// Delete implements Trackable. Deleting an element leaves a hole; deleting
// a hole or an index past the end reports false.
func (a *Array) Delete(key Value) (bool, error) {
	if i, ok := arrayIndex(key); ok {
		if !a.Has(i) {
			return false, nil
		}
		a.elems[i] = nil
		return true, nil
	}
	k := PropertyKey(key)
	if k == "length" {
		return false, fmt.Errorf("delete length: %w", ErrNotConfigurable)
	}
	if a.props == nil {
		return false, nil
	}
	return a.props.Remove(k)
}

// Call implements Trackable. The names in ArrayMethods run the built-in
// list methods; other names resolve through the property bag.
func (a *Array) Call(method string, args ...Value) (Value, error) {
	if IsArrayMethod(method) {
		return CallArrayMethod(a, a, method, args)
	}
	return callMethod(a, method, args)
}
