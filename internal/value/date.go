package value

import (
	"fmt"
	"math"
	"time"
)

// Date is a mutable point in time with millisecond precision. An invalid
// date has no time value; its primitive is NaN.
type Date struct {
	ms    int64
	valid bool
}

func (*Date) isValue() {}

// maxDateMillis bounds the representable range (±8.64e15 ms).
const maxDateMillis = 8.64e15

// NewDate returns a Date at t, truncated to milliseconds.
func NewDate(t time.Time) *Date {
	return &Date{ms: t.UnixMilli(), valid: true}
}

// DateFromMillis returns a Date at ms milliseconds since the Unix epoch.
func DateFromMillis(ms int64) *Date {
	d := &Date{}
	d.setMillis(float64(ms))
	return d
}

// InvalidDate returns a Date without a time value.
func InvalidDate() *Date {
	return &Date{}
}

// Valid reports whether the date has a time value.
func (d *Date) Valid() bool {
	return d.valid
}

// Millis returns the time value and whether it is valid.
func (d *Date) Millis() (int64, bool) {
	return d.ms, d.valid
}

// Time returns the date as a UTC time.
func (d *Date) Time() (time.Time, bool) {
	if !d.valid {
		return time.Time{}, false
	}
	return time.UnixMilli(d.ms).UTC(), true
}

// Primitive returns the comparable primitive value: Int milliseconds, or
// Float NaN for an invalid date.
func (d *Date) Primitive() Value {
	if !d.valid {
		return Float(math.NaN())
	}
	return Int(d.ms)
}

// ISOString formats the date as an ISO 8601 UTC timestamp.
func (d *Date) ISOString() (string, error) {
	t, ok := d.Time()
	if !ok {
		return "", ErrInvalidDate
	}
	return t.Format("2006-01-02T15:04:05.000Z"), nil
}

func (d *Date) String() string {
	s, err := d.ISOString()
	if err != nil {
		return "Invalid Date"
	}
	return s
}

func (d *Date) setMillis(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxDateMillis {
		d.ms, d.valid = 0, false
		return
	}
	d.ms, d.valid = int64(math.Trunc(f)), true
}

// dateFields is a broken-down UTC calendar time. Month is 0-based.
type dateFields struct {
	year, month, day, hour, min, sec, ms float64
}

func (d *Date) fields() dateFields {
	t := time.UnixMilli(d.ms).UTC()
	return dateFields{
		year:  float64(t.Year()),
		month: float64(t.Month()) - 1,
		day:   float64(t.Day()),
		hour:  float64(t.Hour()),
		min:   float64(t.Minute()),
		sec:   float64(t.Second()),
		ms:    float64(t.Nanosecond() / int(time.Millisecond)),
	}
}

func (d *Date) setFields(f dateFields) {
	for _, v := range []float64{f.year, f.month, f.day, f.hour, f.min, f.sec, f.ms} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			d.setMillis(math.NaN())
			return
		}
	}
	t := time.Date(int(f.year), time.Month(int(f.month)+1), int(f.day),
		int(f.hour), int(f.min), int(f.sec), int(f.ms)*int(time.Millisecond), time.UTC)
	d.setMillis(float64(t.UnixMilli()))
}

// Get implements Trackable. Dates carry no properties.
func (d *Date) Get(Value) (Value, error) {
	return Undefined{}, nil
}

// Set implements Trackable. Dates carry no properties.
func (d *Date) Set(key, _ Value) error {
	return fmt.Errorf("date property %q: %w", PropertyKey(key), ErrUnsupported)
}

// Delete implements Trackable.
func (d *Date) Delete(Value) (bool, error) {
	return false, nil
}

// Call runs a date method in the UTC calendar.
func (d *Date) Call(method string, args ...Value) (Value, error) {
	num := func(i int) float64 {
		f, _ := ToNumber(arg(args, i))
		return math.Trunc(f)
	}
	// optional returns args[i] when supplied, otherwise cur.
	optional := func(i int, cur float64) float64 {
		if i < len(args) {
			return num(i)
		}
		return cur
	}
	getter := func(pick func(dateFields) float64) (Value, error) {
		if !d.valid {
			return Float(math.NaN()), nil
		}
		return Int(int64(pick(d.fields()))), nil
	}

	switch method {
	case "getTime", "valueOf":
		return d.Primitive(), nil
	case "toISOString", "toJSON":
		s, err := d.ISOString()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case "toString":
		return String(d.String()), nil
	case "getFullYear":
		return getter(func(f dateFields) float64 { return f.year })
	case "getMonth":
		return getter(func(f dateFields) float64 { return f.month })
	case "getDate":
		return getter(func(f dateFields) float64 { return f.day })
	case "getDay":
		if !d.valid {
			return Float(math.NaN()), nil
		}
		return Int(int64(time.UnixMilli(d.ms).UTC().Weekday())), nil
	case "getHours":
		return getter(func(f dateFields) float64 { return f.hour })
	case "getMinutes":
		return getter(func(f dateFields) float64 { return f.min })
	case "getSeconds":
		return getter(func(f dateFields) float64 { return f.sec })
	case "getMilliseconds":
		return getter(func(f dateFields) float64 { return f.ms })
	case "setTime":
		f, _ := ToNumber(arg(args, 0))
		d.setMillis(f)
		return d.Primitive(), nil
	case "setFullYear":
		// An invalid date counts as the epoch here.
		base := dateFields{year: 1970, day: 1}
		if d.valid {
			base = d.fields()
		}
		base.year = num(0)
		base.month = optional(1, base.month)
		base.day = optional(2, base.day)
		d.setFields(base)
		return d.Primitive(), nil
	}

	if !d.valid {
		switch method {
		case "setMonth", "setDate", "setHours", "setMinutes", "setSeconds", "setMilliseconds":
			return d.Primitive(), nil
		}
		return nil, fmt.Errorf("date.%s: %w", method, ErrUnknownMethod)
	}

	f := d.fields()
	switch method {
	case "setMonth":
		f.month = num(0)
		f.day = optional(1, f.day)
	case "setDate":
		f.day = num(0)
	case "setHours":
		f.hour = num(0)
		f.min = optional(1, f.min)
		f.sec = optional(2, f.sec)
		f.ms = optional(3, f.ms)
	case "setMinutes":
		f.min = num(0)
		f.sec = optional(1, f.sec)
		f.ms = optional(2, f.ms)
	case "setSeconds":
		f.sec = num(0)
		f.ms = optional(1, f.ms)
	case "setMilliseconds":
		f.ms = num(0)
	default:
		return nil, fmt.Errorf("date.%s: %w", method, ErrUnknownMethod)
	}
	d.setFields(f)
	return d.Primitive(), nil
}

var dateMethods = map[string]bool{
	"getTime": true, "valueOf": true, "toISOString": true, "toJSON": true, "toString": true,
	"getFullYear": true, "getMonth": true, "getDate": true, "getDay": true,
	"getHours": true, "getMinutes": true, "getSeconds": true, "getMilliseconds": true,
	"setTime": true, "setFullYear": true, "setMonth": true, "setDate": true,
	"setHours": true, "setMinutes": true, "setSeconds": true, "setMilliseconds": true,
}

// IsDateMethod reports whether name is a method Date.Call understands.
func IsDateMethod(name string) bool {
	return dateMethods[name]
}
