package value

import "fmt"

// GetVia reads key from t, running any getter with receiver as this.
// Wrappers pass themselves as receiver so accessor side effects are
// observed.
func GetVia(t Trackable, key Value, receiver Trackable) (Value, error) {
	if bag, k, ok := propertyBag(t, key); ok {
		if bag == nil {
			return t.Get(key)
		}
		return bag.GetWith(k, receiver)
	}
	return t.Get(key)
}

// SetVia writes key on t, running any setter with receiver as this.
func SetVia(t Trackable, key, v Value, receiver Trackable) error {
	v = Unwrap(Normalize(v))
	if bag, k, ok := propertyBag(t, key); ok && bag != nil {
		if _, exists := bag.props[k]; exists {
			return bag.SetWith(k, v, receiver)
		}
	}
	return t.Set(key, v)
}

// HasOwn reports whether t has key as an own property or element.
func HasOwn(t Trackable, key Value) bool {
	switch c := Unwrap(t).(type) {
	case *Object:
		return c.Has(PropertyKey(key))
	case *Array:
		if i, ok := arrayIndex(key); ok {
			return c.Has(i)
		}
		if PropertyKey(key) == "length" {
			return true
		}
		return c.props != nil && c.props.Has(PropertyKey(key))
	case *Function:
		return c.props != nil && c.props.Has(PropertyKey(key))
	case *Map:
		return c.props != nil && c.props.Has(PropertyKey(key))
	case *Set:
		return c.props != nil && c.props.Has(PropertyKey(key))
	}
	return false
}

// OwnDescriptor returns the descriptor of a named own property of t.
// Array elements and collection entries have none.
func OwnDescriptor(t Value, key string) (Descriptor, bool) {
	bag, k, ok := propertyBag(Unwrap(t), String(key))
	if !ok || bag == nil {
		return Descriptor{}, false
	}
	return bag.GetOwnProperty(k)
}

// DefineOn defines key on t. Array elements accept data descriptors only.
func DefineOn(t Trackable, key Value, d Descriptor) error {
	switch c := Unwrap(t).(type) {
	case *Object:
		return c.DefineProperty(PropertyKey(key), d)
	case *Array:
		if i, ok := arrayIndex(key); ok {
			if d.IsAccessor() {
				return fmt.Errorf("define accessor on index %d: %w", i, ErrUnsupported)
			}
			c.SetAt(i, Unwrap(Normalize(d.Value)))
			return nil
		}
		if PropertyKey(key) == "length" {
			return fmt.Errorf("define length: %w", ErrNotConfigurable)
		}
		return c.Props().DefineProperty(PropertyKey(key), d)
	case *Function:
		return c.Props().DefineProperty(PropertyKey(key), d)
	case *Map:
		return c.Props().DefineProperty(PropertyKey(key), d)
	case *Set:
		return c.Props().DefineProperty(PropertyKey(key), d)
	}
	return fmt.Errorf("define %q on %s: %w", PropertyKey(key), KindOf(t), ErrUnsupported)
}

// propertyBag returns the Object holding named property key of t.
// ok is false when key is not a named property (array index, length,
// size); bag is nil when the bag has not been created yet.
func propertyBag(t Value, key Value) (bag *Object, k string, ok bool) {
	k = PropertyKey(key)
	switch c := Unwrap(t).(type) {
	case *Object:
		return c, k, true
	case *Array:
		if _, isIndex := arrayIndex(key); isIndex || k == "length" {
			return nil, k, false
		}
		return c.props, k, true
	case *Function:
		if c.props == nil || !c.props.Has(k) {
			return nil, k, false
		}
		return c.props, k, true
	case *Map:
		if k == "size" {
			return nil, k, false
		}
		return c.props, k, true
	case *Set:
		if k == "size" {
			return nil, k, false
		}
		return c.props, k, true
	}
	return nil, k, false
}
