package loader

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error codes reported by LoadError.
const (
	ErrCodeRead            = "E201" // File could not be read
	ErrCodeFormat          = "E202" // Unknown document format
	ErrCodeSyntax          = "E203" // Malformed document
	ErrCodeUnsupported     = "E204" // Node or tag with no value mapping
	ErrCodeUnknownFunction = "E205" // !func name not in the function table
	ErrCodeIncomplete      = "E206" // CUE value is not concrete
)

// LoadError describes why a document could not be loaded.
type LoadError struct {
	Code    string
	Message string
	File    string

	// Path is the dotted location inside the document, empty at the root.
	Path string

	// Line and Column locate YAML nodes; zero when unknown.
	Line   int
	Column int

	// Pos locates CUE errors.
	Pos token.Pos
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("at %q: %s", e.Path, e.Message)
	}
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Code, msg)
	case e.File != "":
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// IsLoadError reports whether err is a *LoadError with the given code.
// An empty code matches any LoadError.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	if !errors.As(err, &le) {
		return false
	}
	return code == "" || le.Code == code
}
