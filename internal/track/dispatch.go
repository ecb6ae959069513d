package track

import (
	"slices"

	"github.com/roach88/covert/internal/value"
)

// Handler priorities of the built-in handlers. Lower runs first.
const (
	PriorityOpaque = 1
	PriorityKeyed  = 2
	PrioritySet    = 3
	PriorityObject = 99
)

// Handler is a named, prioritized interception rule set.
//
// Accepts reports whether the handler takes a raw target; New builds the
// wrapper. Both run with the context lock held and must not call back into
// the context.
type Handler struct {
	Name     string
	Priority int
	Accepts  func(target value.Value) bool
	New      func(c *Context, target value.Value) value.Proxy
}

// DefaultHandlers returns the built-in handlers: opaque dates, keyed maps,
// membership sets and the generic object fallback.
func DefaultHandlers() []Handler {
	return []Handler{OpaqueHandler(), KeyedHandler(), SetHandler(), ObjectHandler()}
}

// OpaqueHandler wraps dates.
func OpaqueHandler() Handler {
	return Handler{
		Name:     "opaque",
		Priority: PriorityOpaque,
		Accepts: func(t value.Value) bool {
			_, ok := t.(*value.Date)
			return ok
		},
		New: func(c *Context, t value.Value) value.Proxy {
			return &DateProxy{proxyBase: proxyBase{ctx: c}, target: t.(*value.Date)}
		},
	}
}

// KeyedHandler wraps maps.
func KeyedHandler() Handler {
	return Handler{
		Name:     "map",
		Priority: PriorityKeyed,
		Accepts: func(t value.Value) bool {
			_, ok := t.(*value.Map)
			return ok
		},
		New: func(c *Context, t value.Value) value.Proxy {
			return &MapProxy{proxyBase: proxyBase{ctx: c}, target: t.(*value.Map)}
		},
	}
}

// SetHandler wraps sets.
func SetHandler() Handler {
	return Handler{
		Name:     "set",
		Priority: PrioritySet,
		Accepts: func(t value.Value) bool {
			_, ok := t.(*value.Set)
			return ok
		},
		New: func(c *Context, t value.Value) value.Proxy {
			return &SetProxy{proxyBase: proxyBase{ctx: c}, target: t.(*value.Set)}
		},
	}
}

// ObjectHandler is the fallback for objects, arrays and functions. It
// accepts any Trackable.
func ObjectHandler() Handler {
	return Handler{
		Name:     "object",
		Priority: PriorityObject,
		Accepts: func(t value.Value) bool {
			_, ok := t.(value.Trackable)
			return ok
		},
		New: func(c *Context, t value.Value) value.Proxy {
			return &ObjectProxy{proxyBase: proxyBase{ctx: c}, target: t.(value.Trackable)}
		},
	}
}

// register inserts h keeping ascending priority; equal priorities keep
// registration order.
func (c *Context) register(h Handler) {
	c.handlers = append(c.handlers, h)
	slices.SortStableFunc(c.handlers, func(a, b Handler) int {
		return a.Priority - b.Priority
	})
}

// dispatch returns the first handler that accepts target. c.mu must
// be held.
func (c *Context) dispatch(target value.Value) (Handler, bool) {
	for _, h := range c.handlers {
		if h.Accepts != nil && h.Accepts(target) {
			return h, true
		}
	}
	return Handler{}, false
}

// proxyBase is embedded by every wrapper.
type proxyBase struct {
	value.ProxyBase
	ctx *Context
}

func (b proxyBase) context() *Context {
	return b.ctx
}

// wrapper is implemented by every proxy built by a Context.
type wrapper interface {
	value.Proxy
	context() *Context
}

// unwrapAll unwraps each argument so raw containers never store wrappers.
func unwrapAll(args []value.Value) []value.Value {
	out := make([]value.Value, len(args))
	for i, a := range args {
		out[i] = value.Unwrap(value.Normalize(a))
	}
	return out
}

func argAt(args []value.Value, i int) value.Value {
	if i < len(args) {
		return value.Normalize(args[i])
	}
	return value.Undefined{}
}
