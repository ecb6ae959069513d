package value

import "errors"

var (
	// ErrNotWritable is returned when writing a read-only property.
	ErrNotWritable = errors.New("property is not writable")

	// ErrNotConfigurable is returned when deleting or redefining a
	// non-configurable property.
	ErrNotConfigurable = errors.New("property is not configurable")

	// ErrNotCallable is returned when invoking something that is not a function.
	ErrNotCallable = errors.New("value is not callable")

	// ErrUnknownMethod is returned by Call for a method the container lacks.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrUnsupported is returned for operations a value kind cannot perform.
	ErrUnsupported = errors.New("operation not supported")

	// ErrInvalidDate is returned when formatting an invalid date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidLength is returned when an array length is negative or
	// not an integer.
	ErrInvalidLength = errors.New("invalid array length")
)
