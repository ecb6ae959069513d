package track

import (
	"time"

	"github.com/roach88/covert/internal/value"
)

// DateProxy wraps a date. Dates have no structure, so any method call that
// changes the date's primitive value is reported at the date's own path.
type DateProxy struct {
	proxyBase
	target *value.Date
}

// Target returns the raw date.
func (p *DateProxy) Target() value.Value {
	return p.target
}

// Get returns a bound method for date method names. Invoking it goes through
// Call, so mutations made through the returned function are reported.
func (p *DateProxy) Get(key value.Value) (value.Value, error) {
	name := value.PropertyKey(key)
	if !value.IsDateMethod(name) {
		return p.target.Get(key)
	}
	return value.NewFunction(name, func(_ value.Trackable, args ...value.Value) (value.Value, error) {
		return p.Call(name, args...)
	}), nil
}

// Set fails; dates carry no properties.
func (p *DateProxy) Set(key, v value.Value) error {
	return p.target.Set(key, v)
}

// Delete is a no-op.
func (p *DateProxy) Delete(key value.Value) (bool, error) {
	return p.target.Delete(key)
}

// Call invokes method on the raw date and reports (path, before, after)
// when the primitive value changed.
func (p *DateProxy) Call(method string, args ...value.Value) (value.Value, error) {
	before := p.target.Primitive()
	out, err := p.target.Call(method, unwrapAll(args)...)
	if err != nil {
		return nil, err
	}
	after := p.target.Primitive()
	if value.Same(before, after) || p.ctx.isDisposed() {
		return out, nil
	}

	path := p.ctx.pathOf(p.target)
	p.ctx.trace("opaque", "call", path)
	ev := Event{
		Path:     path,
		Target:   p.target,
		Property: value.String(""),
		Op:       OpCall,
		Method:   method,
		Old:      before,
		New:      after,
	}
	return out, p.ctx.emit(ev)
}

// Time returns the date as a UTC time.
func (p *DateProxy) Time() (time.Time, bool) {
	return p.target.Time()
}

// SetTime moves the date to t.
func (p *DateProxy) SetTime(t time.Time) error {
	_, err := p.Call("setTime", value.Int(t.UnixMilli()))
	return err
}
