package value

import (
	"encoding/json"
	"fmt"
	"math/big"
	"slices"
	"time"
)

// Value is a sealed interface over every value a graph can hold.
// Wrapper types outside this package join the set by embedding ProxyBase.
type Value interface {
	isValue()
}

// Kind classifies a Value.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindBigInt
	KindRegExp
	KindObject
	KindArray
	KindMap
	KindSet
	KindDate
	KindFunction
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBool:      "boolean",
	KindInt:       "int",
	KindFloat:     "float",
	KindString:    "string",
	KindBigInt:    "bigint",
	KindRegExp:    "regexp",
	KindObject:    "object",
	KindArray:     "array",
	KindMap:       "map",
	KindSet:       "set",
	KindDate:      "date",
	KindFunction:  "function",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// KindOf returns the kind of v after unwrapping any proxy.
// A nil Value is reported as KindUndefined.
func KindOf(v Value) Kind {
	switch Unwrap(v).(type) {
	case nil, Undefined:
		return KindUndefined
	case Null:
		return KindNull
	case Bool:
		return KindBool
	case Int:
		return KindInt
	case Float:
		return KindFloat
	case String:
		return KindString
	case BigInt:
		return KindBigInt
	case *RegExp:
		return KindRegExp
	case *Object:
		return KindObject
	case *Array:
		return KindArray
	case *Map:
		return KindMap
	case *Set:
		return KindSet
	case *Date:
		return KindDate
	case *Function:
		return KindFunction
	default:
		return KindUndefined
	}
}

// Undefined is the absent value.
type Undefined struct{}

func (Undefined) isValue() {}

// Null is the explicit empty value.
type Null struct{}

func (Null) isValue() {}

// Bool is a boolean scalar.
type Bool bool

func (Bool) isValue() {}

// Int is an integral number.
type Int int64

func (Int) isValue() {}

// Float is a non-integral (or explicitly floating) number.
type Float float64

func (Float) isValue() {}

// String is a text scalar.
type String string

func (String) isValue() {}

// BigInt is an arbitrary precision integer. The wrapped big.Int is never
// mutated after construction.
type BigInt struct {
	n *big.Int
}

func (BigInt) isValue() {}

// NewBigInt copies n into a BigInt.
func NewBigInt(n *big.Int) BigInt {
	return BigInt{n: new(big.Int).Set(n)}
}

// Big returns a copy of the integer.
func (b BigInt) Big() *big.Int {
	if b.n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.n)
}

func (b BigInt) String() string {
	if b.n == nil {
		return "0"
	}
	return b.n.String()
}

// Trackable is the uniform access surface shared by raw containers and
// tracking wrappers. Keys are converted with PropertyKey where the container
// is string-keyed.
type Trackable interface {
	Value
	Get(key Value) (Value, error)
	Set(key, v Value) error
	Delete(key Value) (bool, error)
	Call(method string, args ...Value) (Value, error)
}

// Proxy is a Trackable standing in for another value.
type Proxy interface {
	Trackable
	Target() Value
}

// ProxyBase seals wrapper types declared in other packages into Value.
type ProxyBase struct{}

func (ProxyBase) isValue() {}

// Unwrap strips any number of proxies from v.
func Unwrap(v Value) Value {
	for {
		p, ok := v.(Proxy)
		if !ok {
			return v
		}
		v = p.Target()
	}
}

// IsProxy reports whether v is a wrapper.
func IsProxy(v Value) bool {
	_, ok := v.(Proxy)
	return ok
}

// IsContainer reports whether v (unwrapped) is a mutable container with
// reference identity.
func IsContainer(v Value) bool {
	switch Unwrap(v).(type) {
	case *Object, *Array, *Map, *Set, *Date, *Function:
		return true
	}
	return false
}

// Normalize maps a nil Value to Undefined.
func Normalize(v Value) Value {
	if v == nil {
		return Undefined{}
	}
	return v
}

// From converts a plain Go value into a Value.
//
// Supported: nil, bool, string, all integer kinds, float32/float64,
// json.Number, *big.Int, time.Time, []any, map[string]any (keys sorted) and
// any Value. Maps produce Objects, slices produce Arrays.
func From(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		if val > 1<<63-1 {
			return NewBigInt(new(big.Int).SetUint64(val)), nil
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", val, err)
		}
		return Float(f), nil
	case *big.Int:
		return NewBigInt(val), nil
	case time.Time:
		return NewDate(val), nil
	case []any:
		arr := NewArray()
		for i, elem := range val {
			ev, err := From(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr.Push(ev)
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		obj := NewObject()
		for _, k := range keys {
			ev, err := From(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			if err := obj.Put(k, ev); err != nil {
				return nil, err
			}
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %T", ErrUnsupported, v)
	}
}
