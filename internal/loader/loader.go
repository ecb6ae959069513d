package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/covert/internal/value"
)

// Format is a document syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatOf picks the format for a file name by its extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", &LoadError{
		Code:    ErrCodeFormat,
		File:    name,
		Message: fmt.Sprintf("unknown document extension %q (want .json, .yaml, .yml or .cue)", filepath.Ext(name)),
	}
}

// Load reads the document at path. funcs resolves !func tags and may be nil.
func Load(path string, funcs *value.FuncTable) (value.Value, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, File: path, Message: err.Error()}
	}
	return Parse(data, format, path, funcs)
}

// Parse loads a document held in memory. name is used in error messages.
func Parse(data []byte, format Format, name string, funcs *value.FuncTable) (value.Value, error) {
	switch format {
	case FormatJSON:
		return parseJSON(data, name)
	case FormatYAML:
		return parseYAML(data, name, funcs)
	case FormatCUE:
		return parseCUE(data, name)
	}
	return nil, &LoadError{Code: ErrCodeFormat, File: name, Message: fmt.Sprintf("unknown format %q", format)}
}
