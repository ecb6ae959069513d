package track

import (
	"fmt"

	"github.com/roach88/covert/internal/value"
)

// ObjectProxy is the generic wrapper for objects, arrays and functions.
//
// Reads wrap their result. Writes, definitions and deletions report a change
// at the container's path extended by the key. Arrays additionally intercept
// push and pop, and function-valued properties are invoked with the wrapper
// as receiver so their mutations are reported too.
type ObjectProxy struct {
	proxyBase
	target value.Trackable
}

// Target returns the raw object, array or function.
func (p *ObjectProxy) Target() value.Value {
	return p.target
}

// Get reads key and returns the wrapped result.
func (p *ObjectProxy) Get(key value.Value) (value.Value, error) {
	return trackedGet(p.ctx, "object", p.target, p, key)
}

// Set writes key and reports the change if the value differs.
func (p *ObjectProxy) Set(key, v value.Value) error {
	return trackedSet(p.ctx, "object", p.target, p, key, v)
}

// DefineProperty defines key and reports a change from undefined to the
// defined value, whatever the previous value was.
func (p *ObjectProxy) DefineProperty(key value.Value, d value.Descriptor) error {
	return trackedDefine(p.ctx, "object", p.target, key, d)
}

// Delete removes key. Deleting an absent key succeeds without a change.
func (p *ObjectProxy) Delete(key value.Value) (bool, error) {
	return trackedDelete(p.ctx, "object", p.target, key)
}

// Call invokes a method. On arrays the list methods write element by
// element through the wrapper, so every moved slot is reported; any other
// name must resolve to a function-valued property.
func (p *ObjectProxy) Call(method string, args ...value.Value) (value.Value, error) {
	if arr, ok := p.target.(*value.Array); ok && value.IsArrayMethod(method) {
		p.ctx.trace("object", "call", value.ConcatPath(p.ctx.pathOf(p.target), method))
		return value.CallArrayMethod(arr, p, method, args)
	}

	fv, err := p.Get(value.String(method))
	if err != nil {
		return nil, err
	}
	fn, ok := value.Unwrap(fv).(*value.Function)
	if !ok {
		return nil, fmt.Errorf("%s: %w", method, value.ErrNotCallable)
	}
	p.ctx.trace("object", "call", value.ConcatPath(p.ctx.pathOf(p.target), method))
	return fn.Invoke(p, args...)
}

// Invoke calls a wrapped function with this as receiver; a nil receiver
// means the wrapper itself.
func (p *ObjectProxy) Invoke(this value.Trackable, args ...value.Value) (value.Value, error) {
	fn, ok := p.target.(*value.Function)
	if !ok {
		return nil, fmt.Errorf("invoke %s: %w", value.KindOf(p.target), value.ErrNotCallable)
	}
	if this == nil {
		this = p
	}
	return fn.Invoke(this, args...)
}

// Keys returns the own keys of an object, the indices of an array, or the
// property names of a function.
func (p *ObjectProxy) Keys() []string {
	switch t := p.target.(type) {
	case *value.Object:
		return t.Keys()
	case *value.Array:
		keys := make([]string, t.Len())
		for i := range keys {
			keys[i] = value.Segment(value.Int(i))
		}
		return keys
	case *value.Function:
		return t.Props().Keys()
	}
	return nil
}

// trackedGet reads key through recv so accessors see the wrapper, then wraps
// the result at target's path extended by key. A non-configurable,
// non-writable data property yields its raw value.
func trackedGet(c *Context, handler string, target, recv value.Trackable, key value.Value) (value.Value, error) {
	key = value.Unwrap(value.Normalize(key))
	v, err := value.GetVia(target, key, recv)
	if err != nil {
		return nil, err
	}
	c.trace(handler, "get", value.ConcatPath(c.pathOf(target), value.Segment(key)))
	if !value.IsContainer(v) {
		return v, nil
	}
	if d, ok := c.Descriptor(target, value.PropertyKey(key)); ok && !d.Configurable && !d.IsAccessor() && !d.Writable {
		return v, nil
	}
	return c.wrap(v, target, key)
}

// trackedSet writes key and emits (path.key, old, new) when the value
// changed by identity.
func trackedSet(c *Context, handler string, target, recv value.Trackable, key, v value.Value) error {
	key = value.Unwrap(value.Normalize(key))
	v = value.Unwrap(value.Normalize(v))
	if c.isDisposed() {
		return value.SetVia(target, key, v, recv)
	}

	old, err := target.Get(key)
	if err != nil {
		return err
	}
	arr, isArray := target.(*value.Array)
	oldLen := 0
	if isArray {
		oldLen = arr.Len()
	}

	if err := value.SetVia(target, key, v, recv); err != nil {
		return err
	}
	c.invalidate(target, value.PropertyKey(key))

	path := value.ConcatPath(c.pathOf(target), value.Segment(key))
	c.trace(handler, "set", path)
	if isArray && arr.Len() < oldLen {
		c.detachFrom(c.pathOf(target), arr.Len())
	}
	if value.Same(old, v) {
		return nil
	}
	if value.IsContainer(old) {
		c.detach(path)
	}
	return c.emit(Event{Path: path, Target: target, Property: key, Op: OpSet, Old: old, New: v})
}

// trackedDefine applies d and reports it as a fresh write from undefined.
func trackedDefine(c *Context, handler string, target value.Trackable, key value.Value, d value.Descriptor) error {
	key = value.Unwrap(value.Normalize(key))
	if !d.IsAccessor() {
		d.Value = value.Unwrap(value.Normalize(d.Value))
	}
	if err := value.DefineOn(target, key, d); err != nil {
		return err
	}
	c.invalidate(target, value.PropertyKey(key))

	path := value.ConcatPath(c.pathOf(target), value.Segment(key))
	c.trace(handler, "define", path)
	c.detach(path)
	newValue := value.Value(value.Undefined{})
	if !d.IsAccessor() {
		newValue = d.Value
	}
	return c.emit(Event{Path: path, Target: target, Property: key, Op: OpDefine, Old: value.Undefined{}, New: newValue})
}

// trackedDelete removes key and emits (path.key, old, undefined). Absent
// keys are a silent no-op.
func trackedDelete(c *Context, handler string, target value.Trackable, key value.Value) (bool, error) {
	key = value.Unwrap(value.Normalize(key))
	if c.isDisposed() {
		return target.Delete(key)
	}
	if !value.HasOwn(target, key) {
		return false, nil
	}
	old, err := target.Get(key)
	if err != nil {
		return false, err
	}
	ok, err := target.Delete(key)
	if err != nil || !ok {
		return ok, err
	}
	c.invalidate(target, value.PropertyKey(key))

	path := value.ConcatPath(c.pathOf(target), value.Segment(key))
	c.trace(handler, "delete", path)
	c.detach(path)
	if err := c.emit(Event{Path: path, Target: target, Property: key, Op: OpDelete, Old: old, New: value.Undefined{}}); err != nil {
		return true, err
	}
	return true, nil
}
