package track

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/covert/internal/serial"
	"github.com/roach88/covert/internal/value"
)

// ErrDisposed is returned when observing a context after Uncover.
var ErrDisposed = errors.New("context is disposed")

// Context tracks one covered root.
//
// The context owns every wrapper it builds, the identity table mapping each
// raw container to its handle, path and wrapper, a cache of property
// descriptors, and the ordered observer list. Uncover disposes the context;
// afterwards every wrapper forwards to its target without reporting.
//
// Thread-safety: the tables are guarded by one mutex, which is never held
// while observers run or while a raw target is mutated, so observers may
// read and write the graph they observe. Mutations themselves are meant to
// come from one goroutine at a time.
type Context struct {
	mu          sync.Mutex
	handlers    []Handler
	entries     map[value.Value]*entry
	nextHandle  int64
	descriptors map[value.Value]map[string]descriptorSlot
	observers   []observerEntry
	root        value.Value
	disposed    bool

	clock   Sequencer
	handles HandleGenerator
	logger  *slog.Logger
	funcs   *value.FuncTable
}

// entry is the registration of one wrapped target.
type entry struct {
	handle  int64
	path    string
	handler string
	wrapper value.Proxy

	// detached is set when the target was removed from its registered
	// position; it may then be registered again at a new path.
	detached bool
}

type descriptorSlot struct {
	d  value.Descriptor
	ok bool
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger receiving interception traces at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the clock stamping event sequence numbers.
func WithClock(clock Sequencer) Option {
	return func(c *Context) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithHandleGenerator sets the generator for subscription handles.
func WithHandleGenerator(g HandleGenerator) Option {
	return func(c *Context) {
		if g != nil {
			c.handles = g
		}
	}
}

// WithFuncs sets the function table used to resolve functions on
// deserialization.
func WithFuncs(t *value.FuncTable) Option {
	return func(c *Context) {
		if t != nil {
			c.funcs = t
		}
	}
}

// WithHandler registers an additional handler.
func WithHandler(h Handler) Option {
	return func(c *Context) {
		c.register(h)
	}
}

// New creates a context with the default handlers.
func New(opts ...Option) *Context {
	c := &Context{
		entries:     make(map[value.Value]*entry),
		descriptors: make(map[value.Value]map[string]descriptorSlot),
		clock:       NewClock(),
		handles:     UUIDv7Generator{},
		logger:      slog.Default(),
		funcs:       value.NewFuncTable(),
	}
	for _, h := range DefaultHandlers() {
		c.register(h)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cover wraps root. Covering the same root again returns the same wrapper;
// a wrapper is returned unchanged.
func (c *Context) Cover(root value.Value) (value.Value, error) {
	if value.IsProxy(root) {
		return root, nil
	}
	root = value.Normalize(root)

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return root, nil
	}
	if c.root != nil && c.root != root {
		c.mu.Unlock()
		return nil, ErrRootCovered
	}
	c.root = root
	c.mu.Unlock()

	c.logger.Debug("cover", "kind", value.KindOf(root).String())
	return c.wrap(root, nil, nil)
}

// Uncover disposes the context and returns the raw root. All tables and
// observers are released.
func (c *Context) Uncover() value.Value {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disposed = true
	clear(c.entries)
	clear(c.descriptors)
	c.observers = nil
	c.logger.Debug("uncover")
	return c.root
}

// Disposed reports whether Uncover has been called.
func (c *Context) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Root returns the wrapped root.
func (c *Context) Root() (value.Value, error) {
	c.mu.Lock()
	root := c.root
	c.mu.Unlock()
	if root == nil {
		return nil, ErrNotCovered
	}
	return c.wrap(root, nil, nil)
}

// Funcs returns the context's function table.
func (c *Context) Funcs() *value.FuncTable {
	return c.funcs
}

// Observe registers fn and returns its subscription handle. Observers run
// in registration order.
func (c *Context) Observe(fn Observer) (Subscription, error) {
	if fn == nil {
		return "", errors.New("observer is nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return "", ErrDisposed
	}
	sub := Subscription(c.handles.Generate())
	c.observers = append(c.observers, observerEntry{sub: sub, fn: fn})
	return sub, nil
}

// Unobserve removes the observer registered under sub. It reports whether
// an observer was removed.
func (c *Context) Unobserve(sub Subscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.observers, func(o observerEntry) bool { return o.sub == sub })
	if i < 0 {
		return false
	}
	c.observers = slices.Delete(c.observers, i, i+1)
	return true
}

// Serialize encodes the raw root graph.
func (c *Context) Serialize(format serial.Format) ([]byte, error) {
	c.mu.Lock()
	root := c.root
	c.mu.Unlock()
	if root == nil {
		return nil, ErrNotCovered
	}
	return serial.Encode(root, format)
}

// PathOf returns the registered path of a wrapper or raw container.
func (c *Context) PathOf(v value.Value) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[value.Unwrap(v)]
	if !ok {
		return "", false
	}
	return e.path, true
}

// Locate resolves a dotted path from the root and returns the wrapped value
// found there. Segments address object keys, array indices, map keys by
// their textual form, set insertion indices and function properties.
func (c *Context) Locate(path string) (value.Value, error) {
	cur, err := c.Root()
	if err != nil {
		return nil, err
	}
	walked := ""
	for _, seg := range value.SplitPath(path) {
		walked = value.ConcatPath(walked, seg)
		next, found, err := c.child(cur, seg)
		if err != nil {
			return nil, fmt.Errorf("locate %q: %w", walked, err)
		}
		if !found {
			return nil, fmt.Errorf("locate %q: %w", walked, ErrPathNotFound)
		}
		cur = next
	}
	return cur, nil
}

func (c *Context) child(cur value.Value, seg string) (value.Value, bool, error) {
	switch w := cur.(type) {
	case *MapProxy:
		for _, k := range w.target.Keys() {
			if value.Segment(k) == seg {
				v, err := w.Lookup(k)
				return v, true, err
			}
		}
		return nil, false, nil
	case *SetProxy:
		i, ok := value.ParseIndex(seg)
		if !ok || i >= w.target.Len() {
			return nil, false, nil
		}
		v, err := w.At(i)
		return v, true, err
	case *ObjectProxy:
		key := value.String(seg)
		if !value.HasOwn(w.target, key) {
			return nil, false, nil
		}
		v, err := w.Get(key)
		return v, true, err
	}
	return nil, false, nil
}

// wrap returns the wrapper for target reached from parent via key, building
// and registering it on first sight. parent is nil for the root.
func (c *Context) wrap(target, parent, key value.Value) (value.Value, error) {
	target = value.Normalize(target)
	if !value.IsContainer(target) || value.IsProxy(target) {
		return target, nil
	}
	if k, ok := key.(value.String); ok && k == "constructor" {
		return target, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return target, nil
	}

	path := ""
	if parent != nil {
		parentPath := ""
		if pe, ok := c.entries[parent]; ok {
			parentPath = pe.path
		}
		path = value.ConcatPath(parentPath, value.Segment(key))
	}

	if e, ok := c.entries[target]; ok {
		if e.path != path {
			if !e.detached {
				return nil, &GraphNotTreeError{Path: path, Registered: e.path, Kind: value.KindOf(target)}
			}
			c.logger.Debug("reattach", "handle", e.handle, "from", e.path, "to", path)
			e.path = path
		}
		e.detached = false
		return e.wrapper, nil
	}

	h, ok := c.dispatch(target)
	if !ok {
		return nil, &NoHandlerError{Kind: value.KindOf(target), Path: path}
	}
	c.nextHandle++
	e := &entry{handle: c.nextHandle, path: path, handler: h.Name}
	e.wrapper = h.New(c, target)
	c.entries[target] = e
	c.logger.Debug("wrap", "handler", h.Name, "handle", e.handle, "path", path)
	return e.wrapper, nil
}

// descriptorLocked reads through the descriptor cache. c.mu must be held.
func (c *Context) descriptorLocked(parent value.Value, key string) (value.Descriptor, bool) {
	slots := c.descriptors[parent]
	if slot, ok := slots[key]; ok {
		return slot.d, slot.ok
	}
	d, ok := value.OwnDescriptor(parent, key)
	if slots == nil {
		slots = make(map[string]descriptorSlot)
		c.descriptors[parent] = slots
	}
	slots[key] = descriptorSlot{d: d, ok: ok}
	return d, ok
}

// Descriptor returns the cached own-property descriptor of parent.
func (c *Context) Descriptor(parent value.Value, key string) (value.Descriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.descriptorLocked(value.Unwrap(parent), key)
}

func (c *Context) invalidate(parent value.Value, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.descriptors[parent], key)
}

// pathOf returns the registered path of a raw target, "" when unknown.
func (c *Context) pathOf(target value.Value) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[target]; ok {
		return e.path
	}
	return ""
}

func (c *Context) isDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// detach marks the registration at path and everything beneath it as
// detached.
func (c *Context) detach(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.path != "" && value.HasPathPrefix(e.path, path) {
			e.detached = true
		}
	}
}

// detachChildren marks every registration strictly beneath path as detached.
func (c *Context) detachChildren(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := path + value.PathSeparator
	for _, e := range c.entries {
		if e.path == "" {
			continue
		}
		if path == "" || strings.HasPrefix(e.path, prefix) {
			e.detached = true
		}
	}
}

// detachFrom detaches the children of path whose first segment is an
// index of at least from.
func (c *Context) detachFrom(path string, from int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		rest, ok := strings.CutPrefix(e.path, path+value.PathSeparator)
		if path == "" {
			rest, ok = e.path, e.path != ""
		}
		if !ok {
			continue
		}
		seg, _, _ := strings.Cut(rest, value.PathSeparator)
		if i, isIndex := value.ParseIndex(seg); isIndex && i >= from {
			e.detached = true
		}
	}
}

// emit stamps ev and delivers it to every observer in registration order,
// stopping at the first observer error.
func (c *Context) emit(ev Event) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	ev.Seq = c.clock.Next()
	observers := slices.Clone(c.observers)
	c.mu.Unlock()

	c.logger.Debug("change", "event", ev)
	for _, o := range observers {
		if err := o.fn(ev); err != nil {
			return err
		}
	}
	return nil
}

// trace logs one interception at debug level.
func (c *Context) trace(handler, op, path string) {
	c.logger.Debug("intercept", "handler", handler, "op", op, "path", path)
}
