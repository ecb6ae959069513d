package harness

import (
	"fmt"

	"github.com/roach88/covert/internal/value"
)

// DefaultFuncs returns the function table scenarios resolve !func tags
// against:
//
//   - increment(n = 1): adds n to this.count and returns the new count
//   - rename(name): sets this.name and returns the previous name
//   - greet(): returns "hello, " + this.name without mutating anything
func DefaultFuncs() *value.FuncTable {
	return value.NewFuncTable().
		MustRegister("increment", increment).
		MustRegister("rename", rename).
		MustRegister("greet", greet)
}

func increment(this value.Trackable, args ...value.Value) (value.Value, error) {
	var step value.Value = value.Int(1)
	if len(args) > 0 {
		step = args[0]
	}
	cur, err := this.Get(value.String("count"))
	if err != nil {
		return nil, err
	}

	var next value.Value
	a, aInt := value.Unwrap(cur).(value.Int)
	b, bInt := value.Unwrap(step).(value.Int)
	if aInt && bInt {
		next = a + b
	} else {
		x, ok1 := value.ToNumber(cur)
		y, ok2 := value.ToNumber(step)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("increment: %s + %s: %w", value.KindOf(cur), value.KindOf(step), value.ErrUnsupported)
		}
		next = value.Float(x + y)
	}
	if err := this.Set(value.String("count"), next); err != nil {
		return nil, err
	}
	return next, nil
}

func rename(this value.Trackable, args ...value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("rename: name argument required")
	}
	prev, err := this.Get(value.String("name"))
	if err != nil {
		return nil, err
	}
	if err := this.Set(value.String("name"), args[0]); err != nil {
		return nil, err
	}
	return prev, nil
}

func greet(this value.Trackable, _ ...value.Value) (value.Value, error) {
	name, err := this.Get(value.String("name"))
	if err != nil {
		return nil, err
	}
	s, ok := value.Unwrap(name).(value.String)
	if !ok {
		return value.String("hello"), nil
	}
	return value.String("hello, " + string(s)), nil
}
