package track

import (
	"github.com/roach88/covert/internal/serial"
	"github.com/roach88/covert/internal/value"
)

// Cover starts tracking v in a new context and returns the wrapped root.
// A value that is already a wrapper is returned unchanged.
func Cover(v value.Value, opts ...Option) (value.Value, error) {
	if value.IsProxy(v) {
		return v, nil
	}
	return New(opts...).Cover(v)
}

// ContextOf returns the context that built wrapper w.
func ContextOf(w value.Value) (*Context, error) {
	cw, ok := w.(wrapper)
	if !ok {
		return nil, ErrNotCovered
	}
	return cw.context(), nil
}

// Uncover permanently stops tracking in w's context and returns w's raw
// target. Every wrapper of that context becomes a plain passthrough.
func Uncover(w value.Value) (value.Value, error) {
	c, err := ContextOf(w)
	if err != nil {
		return nil, err
	}
	c.Uncover()
	return value.Unwrap(w), nil
}

// Observe registers fn on w's context.
func Observe(w value.Value, fn Observer) (Subscription, error) {
	c, err := ContextOf(w)
	if err != nil {
		return "", err
	}
	return c.Observe(fn)
}

// Unobserve removes the observer registered under sub on w's context.
// Unknown handles are ignored.
func Unobserve(w value.Value, sub Subscription) error {
	c, err := ContextOf(w)
	if err != nil {
		return err
	}
	c.Unobserve(sub)
	return nil
}

// Target returns the raw value behind w without stopping tracking.
func Target(w value.Value) value.Value {
	return value.Unwrap(w)
}

// Serialize encodes the raw graph behind w.
func Serialize(w value.Value, format serial.Format) ([]byte, error) {
	return serial.Encode(value.Unwrap(w), format)
}

// Deserialize decodes blob and covers the result in a new context.
// Functions are resolved against the table given with WithFuncs.
func Deserialize(blob []byte, format serial.Format, opts ...Option) (value.Value, error) {
	c := New(opts...)
	root, err := serial.Decode(blob, format, c.funcs)
	if err != nil {
		return nil, err
	}
	return c.Cover(root)
}
