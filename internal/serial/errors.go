package serial

import (
	"errors"
	"fmt"
)

// InvalidReferenceError reports a Ref node whose path was not decoded
// before the reference.
type InvalidReferenceError struct {
	// Ref is the referenced path.
	Ref string

	// Path is where the reference appeared.
	Path string
}

// Error implements the error interface.
func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid reference to %q at %q", e.Ref, e.Path)
}

// UnexpectedNodeError reports a tagged node outside the closed type set or
// a node lacking the expected shape.
type UnexpectedNodeError struct {
	Path   string
	Type   string
	Reason string
}

// Error implements the error interface.
func (e *UnexpectedNodeError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("unexpected %s node at %q: %s", e.Type, e.Path, e.Reason)
	}
	return fmt.Sprintf("unexpected node at %q: %s", e.Path, e.Reason)
}

// UnsupportedValueError reports a value the chosen format cannot carry.
type UnsupportedValueError struct {
	Path   string
	Reason string
}

// Error implements the error interface.
func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("cannot serialize value at %q: %s", e.Path, e.Reason)
}

// UnknownFunctionError reports a Function node whose name is not registered.
type UnknownFunctionError struct {
	Name string
	Path string
}

// Error implements the error interface.
func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function %q at %q", e.Name, e.Path)
}

// IsInvalidReference returns true if err is or wraps an InvalidReferenceError.
func IsInvalidReference(err error) bool {
	var re *InvalidReferenceError
	return errors.As(err, &re)
}

// IsUnexpectedNode returns true if err is or wraps an UnexpectedNodeError.
func IsUnexpectedNode(err error) bool {
	var ue *UnexpectedNodeError
	return errors.As(err, &ue)
}
