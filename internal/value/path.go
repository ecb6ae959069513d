package value

import (
	"math"
	"strconv"
	"strings"
)

// PathSeparator joins path segments.
const PathSeparator = "."

// ConcatPath appends segment to base. The root path is the empty string.
func ConcatPath(base, segment string) string {
	if base == "" {
		return segment
	}
	return base + PathSeparator + segment
}

// SplitPath splits a dotted path into segments. The root path has none.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

// HasPathPrefix reports whether path equals prefix or lies beneath it.
func HasPathPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+PathSeparator)
}

// Segment returns the textual path segment for a key.
func Segment(key Value) string {
	return PropertyKey(key)
}

// PropertyKey converts a key to the string used for string-keyed storage.
func PropertyKey(key Value) string {
	switch k := Unwrap(key).(type) {
	case nil, Undefined:
		return "undefined"
	case Null:
		return "null"
	case String:
		return string(k)
	case Int:
		return strconv.FormatInt(int64(k), 10)
	case Float:
		return FormatNumber(float64(k))
	case Bool:
		return strconv.FormatBool(bool(k))
	case BigInt:
		return k.String()
	case *RegExp:
		return k.String()
	case *Date:
		return k.String()
	case *Function:
		return "function " + k.Name()
	case *Array:
		return "[object Array]"
	case *Map:
		return "[object Map]"
	case *Set:
		return "[object Set]"
	default:
		return "[object Object]"
	}
}

// FormatNumber renders a float the way a script runtime prints numbers:
// integral values without a fraction, NaN and the infinities by name.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToNumber converts a scalar to a float the way numeric coercion does.
// ok is false for values that have no numeric reading.
func ToNumber(v Value) (f float64, ok bool) {
	switch n := Unwrap(v).(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	case Bool:
		if n {
			return 1, true
		}
		return 0, true
	case Null:
		return 0, true
	case nil, Undefined:
		return math.NaN(), true
	case String:
		s := strings.TrimSpace(string(n))
		if s == "" {
			return 0, true
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN(), true
		}
		return p, true
	case *Date:
		prim := n.Primitive()
		return ToNumber(prim)
	}
	return math.NaN(), false
}

// arrayIndex parses a canonical non-negative integer key.
func arrayIndex(key Value) (int, bool) {
	switch k := Unwrap(key).(type) {
	case Int:
		if k < 0 || int64(k) > math.MaxInt32 {
			return 0, false
		}
		return int(k), true
	case Float:
		f := float64(k)
		if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
			return 0, false
		}
		return int(f), true
	case String:
		s := string(k)
		i, err := strconv.Atoi(s)
		if err != nil || i < 0 || strconv.Itoa(i) != s {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// ParseIndex parses a path segment as a non-negative integer index.
func ParseIndex(segment string) (int, bool) {
	return arrayIndex(String(segment))
}
