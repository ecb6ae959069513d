package value

import (
	"fmt"
	"iter"
	"slices"
)

// Descriptor describes one own property of an Object.
//
// A descriptor is either a data property (Value, Writable) or an accessor
// property (Get, Set). Enumerable and Configurable apply to both.
type Descriptor struct {
	Value        Value
	Get          *Function
	Set          *Function
	Writable     bool
	Enumerable   bool
	Configurable bool
}

// DataDescriptor is the descriptor a plain assignment creates.
func DataDescriptor(v Value) Descriptor {
	return Descriptor{
		Value:        Normalize(v),
		Writable:     true,
		Enumerable:   true,
		Configurable: true,
	}
}

// IsAccessor reports whether d has a getter or setter.
func (d Descriptor) IsAccessor() bool {
	return d.Get != nil || d.Set != nil
}

// Object is an ordered string-keyed record. Keys keep insertion order.
type Object struct {
	keys  []string
	props map[string]Descriptor
}

func (*Object) isValue() {}

// Pair is a key-value pair for ObjectOf.
type Pair struct {
	Key   string
	Value Value
}

// P is shorthand for Pair.
// Example: ObjectOf(P("name", String("cart")), P("count", Int(5)))
func P(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{props: make(map[string]Descriptor)}
}

// ObjectOf builds an Object of writable, enumerable data properties.
func ObjectOf(pairs ...Pair) *Object {
	o := NewObject()
	for _, p := range pairs {
		o.define(p.Key, DataDescriptor(p.Value))
	}
	return o
}

// Len returns the number of own properties.
func (o *Object) Len() int {
	return len(o.keys)
}

// Keys returns own property keys in insertion order.
func (o *Object) Keys() []string {
	return slices.Clone(o.keys)
}

// Has reports whether key is an own property.
func (o *Object) Has(key string) bool {
	_, ok := o.props[key]
	return ok
}

// Properties iterates own properties in insertion order.
func (o *Object) Properties() iter.Seq2[string, Descriptor] {
	return func(yield func(string, Descriptor) bool) {
		for _, k := range o.keys {
			if !yield(k, o.props[k]) {
				return
			}
		}
	}
}

// GetOwnProperty returns the descriptor of an own property.
func (o *Object) GetOwnProperty(key string) (Descriptor, bool) {
	d, ok := o.props[key]
	return d, ok
}

// DefineProperty creates or redefines an own property.
// Redefining a non-configurable property only succeeds for a value update
// of a writable data property with unchanged attributes.
func (o *Object) DefineProperty(key string, d Descriptor) error {
	if !d.IsAccessor() {
		d.Value = Normalize(d.Value)
	}
	if cur, ok := o.props[key]; ok && !cur.Configurable {
		compatible := !cur.IsAccessor() && !d.IsAccessor() && cur.Writable &&
			d.Writable && d.Enumerable == cur.Enumerable && !d.Configurable
		if !compatible {
			return fmt.Errorf("define %q: %w", key, ErrNotConfigurable)
		}
	}
	o.define(key, d)
	return nil
}

func (o *Object) define(key string, d Descriptor) {
	if _, ok := o.props[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.props[key] = d
}

// Lookup returns the stored value of a data property. Accessor properties
// report Undefined.
func (o *Object) Lookup(key string) (Value, bool) {
	d, ok := o.props[key]
	if !ok {
		return Undefined{}, false
	}
	if d.IsAccessor() {
		return Undefined{}, true
	}
	return d.Value, true
}

// GetWith reads key, invoking a getter with receiver as this.
func (o *Object) GetWith(key string, receiver Trackable) (Value, error) {
	d, ok := o.props[key]
	if !ok {
		return Undefined{}, nil
	}
	if d.IsAccessor() {
		if d.Get == nil {
			return Undefined{}, nil
		}
		return d.Get.Invoke(receiver)
	}
	return d.Value, nil
}

// SetWith writes key, invoking a setter with receiver as this.
func (o *Object) SetWith(key string, v Value, receiver Trackable) error {
	d, ok := o.props[key]
	if !ok {
		o.define(key, DataDescriptor(v))
		return nil
	}
	if d.IsAccessor() {
		if d.Set == nil {
			return fmt.Errorf("set %q: %w", key, ErrNotWritable)
		}
		_, err := d.Set.Invoke(receiver, Normalize(v))
		return err
	}
	if !d.Writable {
		return fmt.Errorf("set %q: %w", key, ErrNotWritable)
	}
	d.Value = Normalize(v)
	o.props[key] = d
	return nil
}

// Put assigns key with the object itself as receiver.
func (o *Object) Put(key string, v Value) error {
	return o.SetWith(key, v, o)
}

// Remove deletes an own property. Deleting an absent key is a no-op.
func (o *Object) Remove(key string) (bool, error) {
	d, ok := o.props[key]
	if !ok {
		return false, nil
	}
	if !d.Configurable {
		return false, fmt.Errorf("delete %q: %w", key, ErrNotConfigurable)
	}
	delete(o.props, key)
	if i := slices.Index(o.keys, key); i >= 0 {
		o.keys = slices.Delete(o.keys, i, i+1)
	}
	return true, nil
}

// Get implements Trackable.
func (o *Object) Get(key Value) (Value, error) {
	return o.GetWith(PropertyKey(key), o)
}

// Set implements Trackable.
func (o *Object) Set(key, v Value) error {
	return o.SetWith(PropertyKey(key), Unwrap(Normalize(v)), o)
}

// Delete implements Trackable.
func (o *Object) Delete(key Value) (bool, error) {
	return o.Remove(PropertyKey(key))
}

// Call invokes the function stored under method with the object as this.
func (o *Object) Call(method string, args ...Value) (Value, error) {
	return callMethod(o, method, args)
}

// callMethod looks up method through recv and invokes it with recv as this.
func callMethod(recv Trackable, method string, args []Value) (Value, error) {
	fv, err := recv.Get(String(method))
	if err != nil {
		return nil, err
	}
	fn, ok := Unwrap(fv).(*Function)
	if !ok {
		return nil, fmt.Errorf("%s: %w", method, ErrNotCallable)
	}
	return fn.Invoke(recv, args...)
}
