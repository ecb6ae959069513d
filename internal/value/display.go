package value

import (
	"strconv"
	"strings"
)

// Display renders v as a compact, human readable literal. Cyclic references
// print as [Circular].
func Display(v Value) string {
	var b strings.Builder
	display(&b, Unwrap(Normalize(v)), make(map[Value]bool))
	return b.String()
}

func display(b *strings.Builder, v Value, onPath map[Value]bool) {
	v = Unwrap(Normalize(v))
	if IsContainer(v) {
		if onPath[v] {
			b.WriteString("[Circular]")
			return
		}
		onPath[v] = true
		defer delete(onPath, v)
	}

	switch x := v.(type) {
	case Undefined:
		b.WriteString("undefined")
	case Null:
		b.WriteString("null")
	case Bool:
		b.WriteString(strconv.FormatBool(bool(x)))
	case Int:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case Float:
		b.WriteString(FormatNumber(float64(x)))
	case String:
		b.WriteString(strconv.Quote(string(x)))
	case BigInt:
		b.WriteString(x.String())
		b.WriteByte('n')
	case *RegExp:
		b.WriteString(x.String())
	case *Date:
		b.WriteString("Date(")
		b.WriteString(x.String())
		b.WriteByte(')')
	case *Function:
		b.WriteString("[Function ")
		b.WriteString(x.Name())
		b.WriteByte(']')
	case *Array:
		b.WriteByte('[')
		for i := range x.Len() {
			if i > 0 {
				b.WriteString(", ")
			}
			display(b, x.At(i), onPath)
		}
		b.WriteByte(']')
	case *Object:
		b.WriteByte('{')
		i := 0
		for k, d := range x.Properties() {
			if i > 0 {
				b.WriteString(", ")
			}
			i++
			b.WriteString(k)
			b.WriteString(": ")
			if d.IsAccessor() {
				b.WriteString("[Accessor]")
				continue
			}
			display(b, d.Value, onPath)
		}
		b.WriteByte('}')
	case *Map:
		b.WriteString("Map(")
		b.WriteString(strconv.Itoa(x.Len()))
		b.WriteString(") {")
		for i, e := range x.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			display(b, e.Key, onPath)
			b.WriteString(" => ")
			display(b, e.Value, onPath)
		}
		b.WriteByte('}')
	case *Set:
		b.WriteString("Set(")
		b.WriteString(strconv.Itoa(x.Len()))
		b.WriteString(") {")
		for i, m := range x.members {
			if i > 0 {
				b.WriteString(", ")
			}
			display(b, m, onPath)
		}
		b.WriteByte('}')
	default:
		b.WriteString("?")
	}
}
