package value

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Callable is the implementation behind a Function. this is the receiver
// the function was invoked through; it is a wrapper when called through a
// tracked graph, so mutations made via this are reported.
type Callable func(this Trackable, args ...Value) (Value, error)

// Function is a named callable with its own property bag. Functions are
// resolved by name from a FuncTable; the name is what serialization stores.
type Function struct {
	name  string
	impl  Callable
	props *Object
}

func (*Function) isValue() {}

// NewFunction returns a Function named name.
func NewFunction(name string, impl Callable) *Function {
	return &Function{name: name, impl: impl}
}

// Name returns the registered function name.
func (f *Function) Name() string {
	return f.name
}

// Invoke calls the function with this as receiver.
func (f *Function) Invoke(this Trackable, args ...Value) (Value, error) {
	if f.impl == nil {
		return nil, fmt.Errorf("function %q: %w", f.name, ErrNotCallable)
	}
	out, err := f.impl(this, args...)
	if err != nil {
		return nil, err
	}
	return Normalize(out), nil
}

// Props returns the function's own property bag.
func (f *Function) Props() *Object {
	if f.props == nil {
		f.props = NewObject()
	}
	return f.props
}

// Get implements Trackable. "name" falls back to the function name.
func (f *Function) Get(key Value) (Value, error) {
	k := PropertyKey(key)
	if f.props != nil && f.props.Has(k) {
		return f.props.GetWith(k, f)
	}
	if k == "name" {
		return String(f.name), nil
	}
	return Undefined{}, nil
}

// Set implements Trackable.
func (f *Function) Set(key, v Value) error {
	return f.Props().SetWith(PropertyKey(key), Unwrap(Normalize(v)), f)
}

// Delete implements Trackable.
func (f *Function) Delete(key Value) (bool, error) {
	if f.props == nil {
		return false, nil
	}
	return f.props.Remove(PropertyKey(key))
}

// Call invokes a function-valued property of f with f as this.
func (f *Function) Call(method string, args ...Value) (Value, error) {
	return callMethod(f, method, args)
}

// ErrDuplicateFunc is returned when registering a name twice.
var ErrDuplicateFunc = errors.New("function already registered")

// FuncTable maps function names to implementations. It is the only way a
// deserialized Function regains behavior.
//
// Thread-safety: FuncTable is safe for concurrent use.
type FuncTable struct {
	mu    sync.RWMutex
	funcs map[string]Callable
}

// NewFuncTable returns an empty table.
func NewFuncTable() *FuncTable {
	return &FuncTable{funcs: make(map[string]Callable)}
}

// Register adds impl under name.
func (t *FuncTable) Register(name string, impl Callable) error {
	if name == "" {
		return errors.New("function name is empty")
	}
	if impl == nil {
		return fmt.Errorf("function %q: nil implementation", name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.funcs[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrDuplicateFunc)
	}
	t.funcs[name] = impl
	return nil
}

// MustRegister is Register that panics on error; for package init tables.
func (t *FuncTable) MustRegister(name string, impl Callable) *FuncTable {
	if err := t.Register(name, impl); err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the implementation registered under name.
func (t *FuncTable) Lookup(name string) (Callable, bool) {
	if t == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	impl, ok := t.funcs[name]
	return impl, ok
}

// New returns a fresh Function bound to the implementation named name.
func (t *FuncTable) New(name string) (*Function, bool) {
	impl, ok := t.Lookup(name)
	if !ok {
		return nil, false
	}
	return NewFunction(name, impl), true
}

// Names returns the registered names in sorted order.
func (t *FuncTable) Names() []string {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.funcs))
	for n := range t.funcs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
