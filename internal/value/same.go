package value

import (
	"math"
	"slices"
)

// Same reports whether a and b are the same value: scalars by value with NaN
// equal to NaN and +0 distinct from -0, containers by identity. Int and
// Float compare numerically. Proxies are compared as themselves, not their
// targets.
func Same(a, b Value) bool {
	a, b = Normalize(a), Normalize(b)
	if fa, ok := number(a); ok {
		fb, ok := number(b)
		if !ok {
			return false
		}
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
		if fa == 0 && fb == 0 {
			return math.Signbit(fa) == math.Signbit(fb)
		}
		return fa == fb
	}
	if x, ok := a.(BigInt); ok {
		y, ok := b.(BigInt)
		return ok && x.Big().Cmp(y.Big()) == 0
	}
	return a == b
}

func number(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	}
	return 0, false
}

// Equal reports deep structural equality. Object properties compare without
// regard to key order; arrays, maps and sets compare in order. Cycles are
// compared pairwise.
func Equal(a, b Value) bool {
	return equal(Unwrap(Normalize(a)), Unwrap(Normalize(b)), make(map[[2]Value]bool))
}

func equal(a, b Value, seen map[[2]Value]bool) bool {
	a, b = Unwrap(Normalize(a)), Unwrap(Normalize(b))
	if KindOf(a) != KindOf(b) {
		_, an := number(a)
		_, bn := number(b)
		return an && bn && Same(a, b)
	}
	if !IsContainer(a) {
		switch x := a.(type) {
		case *RegExp:
			y := b.(*RegExp)
			return x.source == y.source && x.flags == y.flags
		}
		return Same(a, b)
	}
	if a == b {
		return true
	}
	pair := [2]Value{a, b}
	if seen[pair] {
		return true
	}
	seen[pair] = true

	switch x := a.(type) {
	case *Object:
		return equalObjects(x, b.(*Object), seen)
	case *Array:
		y := b.(*Array)
		if x.Len() != y.Len() {
			return false
		}
		for i := range x.Len() {
			if x.Has(i) != y.Has(i) || !equal(x.At(i), y.At(i), seen) {
				return false
			}
		}
		return true
	case *Map:
		y := b.(*Map)
		return slices.EqualFunc(x.entries, y.entries, func(p, q Entry) bool {
			return equal(p.Key, q.Key, seen) && equal(p.Value, q.Value, seen)
		})
	case *Set:
		y := b.(*Set)
		return slices.EqualFunc(x.members, y.members, func(p, q Value) bool { return equal(p, q, seen) })
	case *Date:
		y := b.(*Date)
		return x.valid == y.valid && (!x.valid || x.ms == y.ms)
	case *Function:
		y := b.(*Function)
		return x.name == y.name && equalObjects(propsOf(x.props), propsOf(y.props), seen)
	}
	return false
}

func equalObjects(x, y *Object, seen map[[2]Value]bool) bool {
	if x.Len() != y.Len() {
		return false
	}
	for k, dx := range x.Properties() {
		dy, ok := y.props[k]
		if !ok {
			return false
		}
		if dx.IsAccessor() || dy.IsAccessor() {
			if dx.Get != dy.Get || dx.Set != dy.Set {
				return false
			}
			continue
		}
		if !equal(dx.Value, dy.Value, seen) {
			return false
		}
	}
	return true
}

func propsOf(o *Object) *Object {
	if o == nil {
		return NewObject()
	}
	return o
}
