package track

import (
	"errors"
	"fmt"

	"github.com/roach88/covert/internal/value"
)

var (
	// ErrNotCovered is returned when an API call receives a value that is
	// not a wrapper produced by Cover.
	ErrNotCovered = errors.New("value is not covered")

	// ErrRootCovered is returned when Cover is called twice on one Context
	// with different roots.
	ErrRootCovered = errors.New("context already covers a different root")

	// ErrPathNotFound is returned by Locate for a path that does not resolve.
	ErrPathNotFound = errors.New("path not found")
)

// GraphNotTreeError reports a target reachable through two distinct paths.
// It is fatal to the operation that discovered the second path.
type GraphNotTreeError struct {
	// Path is the newly computed path.
	Path string

	// Registered is the path the target was first seen at.
	Registered string

	// Kind is the kind of the shared target.
	Kind value.Kind
}

// Error implements the error interface.
func (e *GraphNotTreeError) Error() string {
	return fmt.Sprintf("graph is not a tree: %s reached at %q, already registered at %q",
		e.Kind, displayPath(e.Path), displayPath(e.Registered))
}

// NoHandlerError reports a value no registered handler accepts.
type NoHandlerError struct {
	Kind value.Kind
	Path string
}

// Error implements the error interface.
func (e *NoHandlerError) Error() string {
	return fmt.Sprintf("no handler for %s at %q", e.Kind, displayPath(e.Path))
}

// IsGraphNotTree returns true if err is or wraps a GraphNotTreeError.
func IsGraphNotTree(err error) bool {
	var ge *GraphNotTreeError
	return errors.As(err, &ge)
}

// IsNoHandler returns true if err is or wraps a NoHandlerError.
func IsNoHandler(err error) bool {
	var ne *NoHandlerError
	return errors.As(err, &ne)
}

func displayPath(p string) string {
	if p == "" {
		return "<root>"
	}
	return p
}
