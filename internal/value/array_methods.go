package value

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ArrayMethods lists the list methods arrays understand.
var ArrayMethods = []string{
	"push", "pop", "shift", "unshift", "splice",
	"reverse", "fill", "sort", "indexOf", "includes",
}

// IsArrayMethod reports whether name is one of ArrayMethods.
func IsArrayMethod(name string) bool {
	return slices.Contains(ArrayMethods, name)
}

// CallArrayMethod runs a list method on a. Elements are read from a and
// every write goes through recv with element-level Set and Delete calls
// followed by a "length" write, so a tracking receiver observes each
// moved slot. recv is a itself for untracked calls.
func CallArrayMethod(a *Array, recv Trackable, method string, args []Value) (Value, error) {
	switch method {
	case "push":
		for _, v := range args {
			if err := recv.Set(Int(a.Len()), v); err != nil {
				return nil, err
			}
		}
		return Int(a.Len()), nil
	case "pop":
		return arrayPop(a, recv)
	case "shift":
		return arrayShift(a, recv)
	case "unshift":
		return arrayUnshift(a, recv, args)
	case "splice":
		return arraySplice(a, recv, args)
	case "reverse":
		return recv, arrayReverse(a, recv)
	case "fill":
		return recv, arrayFill(a, recv, args)
	case "sort":
		return recv, arraySort(a, recv, args)
	case "indexOf":
		return Int(a.IndexOf(arg(args, 0))), nil
	case "includes":
		return Bool(a.Includes(arg(args, 0))), nil
	}
	return nil, fmt.Errorf("array %s: %w", method, ErrUnknownMethod)
}

// move copies slot from to slot to through recv, deleting to when from is
// a hole.
func move(a *Array, recv Trackable, from, to int) error {
	if a.Has(from) {
		return recv.Set(Int(to), a.At(from))
	}
	_, err := recv.Delete(Int(to))
	return err
}

func setLength(recv Trackable, n int) error {
	return recv.Set(String("length"), Int(n))
}

func arrayPop(a *Array, recv Trackable) (Value, error) {
	n := a.Len()
	if n == 0 {
		return Undefined{}, nil
	}
	last := a.At(n - 1)
	if _, err := recv.Delete(Int(n - 1)); err != nil {
		return nil, err
	}
	return last, setLength(recv, n-1)
}

func arrayShift(a *Array, recv Trackable) (Value, error) {
	n := a.Len()
	if n == 0 {
		return Undefined{}, nil
	}
	first := a.At(0)
	for k := 1; k < n; k++ {
		if err := move(a, recv, k, k-1); err != nil {
			return nil, err
		}
	}
	if _, err := recv.Delete(Int(n - 1)); err != nil {
		return nil, err
	}
	return first, setLength(recv, n-1)
}

func arrayUnshift(a *Array, recv Trackable, items []Value) (Value, error) {
	n, count := a.Len(), len(items)
	if count == 0 {
		return Int(n), nil
	}
	for k := n; k > 0; k-- {
		if err := move(a, recv, k-1, k+count-1); err != nil {
			return nil, err
		}
	}
	for i, v := range items {
		if err := recv.Set(Int(i), v); err != nil {
			return nil, err
		}
	}
	return Int(n + count), setLength(recv, n+count)
}

// arraySplice removes deleteCount elements at start, inserts items in their
// place and returns the removed elements as a new Array.
func arraySplice(a *Array, recv Trackable, args []Value) (Value, error) {
	n := a.Len()
	start := 0
	if len(args) > 0 {
		start = relativeIndex(args[0], n, 0)
	}
	deleteCount := n - start
	if len(args) > 1 {
		deleteCount = clampInt(integerOf(args[1], 0), 0, n-start)
	}
	var items []Value
	if len(args) > 2 {
		items = args[2:]
	}

	removed := NewArray()
	for k := 0; k < deleteCount; k++ {
		if a.Has(start + k) {
			removed.SetAt(k, a.At(start+k))
		}
	}
	if err := removed.SetLen(deleteCount); err != nil {
		return nil, err
	}

	count := len(items)
	switch {
	case count < deleteCount:
		for k := start; k < n-deleteCount; k++ {
			if err := move(a, recv, k+deleteCount, k+count); err != nil {
				return nil, err
			}
		}
		for k := n; k > n-deleteCount+count; k-- {
			if _, err := recv.Delete(Int(k - 1)); err != nil {
				return nil, err
			}
		}
	case count > deleteCount:
		for k := n - deleteCount; k > start; k-- {
			if err := move(a, recv, k+deleteCount-1, k+count-1); err != nil {
				return nil, err
			}
		}
	}
	for i, v := range items {
		if err := recv.Set(Int(start+i), v); err != nil {
			return nil, err
		}
	}
	return removed, setLength(recv, n-deleteCount+count)
}

func arrayReverse(a *Array, recv Trackable) error {
	n := a.Len()
	for lower := 0; lower < n/2; lower++ {
		upper := n - 1 - lower
		lowerHas, upperHas := a.Has(lower), a.Has(upper)
		lowerV, upperV := a.At(lower), a.At(upper)
		switch {
		case lowerHas && upperHas:
			if err := recv.Set(Int(lower), upperV); err != nil {
				return err
			}
			if err := recv.Set(Int(upper), lowerV); err != nil {
				return err
			}
		case upperHas:
			if err := recv.Set(Int(lower), upperV); err != nil {
				return err
			}
			if _, err := recv.Delete(Int(upper)); err != nil {
				return err
			}
		case lowerHas:
			if _, err := recv.Delete(Int(lower)); err != nil {
				return err
			}
			if err := recv.Set(Int(upper), lowerV); err != nil {
				return err
			}
		}
	}
	return nil
}

func arrayFill(a *Array, recv Trackable, args []Value) error {
	n := a.Len()
	v := arg(args, 0)
	start, end := 0, n
	if len(args) > 1 {
		start = relativeIndex(args[1], n, 0)
	}
	if len(args) > 2 {
		if _, undef := Unwrap(args[2]).(Undefined); !undef {
			end = relativeIndex(args[2], n, n)
		}
	}
	for k := start; k < end; k++ {
		if err := recv.Set(Int(k), v); err != nil {
			return err
		}
	}
	return nil
}

// arraySort sorts stably. Holes move to the end after undefined values. An
// optional comparator function returns a negative, zero or positive number;
// without one elements compare by their string form.
func arraySort(a *Array, recv Trackable, args []Value) error {
	var cmp *Function
	if len(args) > 0 {
		switch c := Unwrap(args[0]).(type) {
		case Undefined:
		case *Function:
			cmp = c
		default:
			return fmt.Errorf("sort comparator %s: %w", KindOf(c), ErrNotCallable)
		}
	}

	n := a.Len()
	var vals []Value
	undefined := 0
	for i := 0; i < n; i++ {
		if !a.Has(i) {
			continue
		}
		if _, ok := a.At(i).(Undefined); ok {
			undefined++
			continue
		}
		vals = append(vals, a.At(i))
	}

	var callErr error
	slices.SortStableFunc(vals, func(x, y Value) int {
		if cmp == nil {
			return strings.Compare(PropertyKey(x), PropertyKey(y))
		}
		if callErr != nil {
			return 0
		}
		out, err := cmp.Invoke(nil, x, y)
		if err != nil {
			callErr = err
			return 0
		}
		f, ok := ToNumber(out)
		switch {
		case !ok || math.IsNaN(f) || f == 0:
			return 0
		case f < 0:
			return -1
		}
		return 1
	})
	if callErr != nil {
		return callErr
	}

	k := 0
	for _, v := range vals {
		if err := recv.Set(Int(k), v); err != nil {
			return err
		}
		k++
	}
	for ; undefined > 0; undefined-- {
		if err := recv.Set(Int(k), Undefined{}); err != nil {
			return err
		}
		k++
	}
	for ; k < n; k++ {
		if _, err := recv.Delete(Int(k)); err != nil {
			return err
		}
	}
	return nil
}

// relativeIndex resolves a possibly negative index argument against n.
func relativeIndex(v Value, n, def int) int {
	i := integerOf(v, def)
	if i < 0 {
		return max(n+i, 0)
	}
	return min(i, n)
}

// integerOf truncates a numeric argument; non-numbers yield def.
func integerOf(v Value, def int) int {
	f, ok := ToNumber(v)
	switch {
	case !ok:
		return def
	case math.IsNaN(f):
		return 0
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
