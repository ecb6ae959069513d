package journal

import (
	"errors"
	"fmt"

	"github.com/roach88/covert/internal/serial"
	"github.com/roach88/covert/internal/value"
)

// Value encodings recorded in changes.value_format.
const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatDisplay = "display"
)

// marshalValues encodes the values of one row in a single format: JSON when
// every value fits, else YAML, else display text.
func marshalValues(vals ...value.Value) ([]string, string, error) {
	out, err := encodeAll(vals, serial.FormatJSON)
	if err == nil {
		return out, FormatJSON, nil
	}
	var ue *serial.UnsupportedValueError
	if !errors.As(err, &ue) {
		return nil, "", fmt.Errorf("marshal values: %w", err)
	}

	out, err = encodeAll(vals, serial.FormatYAML)
	if err == nil {
		return out, FormatYAML, nil
	}
	if !errors.As(err, &ue) {
		return nil, "", fmt.Errorf("marshal values: %w", err)
	}

	out = make([]string, len(vals))
	for i, v := range vals {
		out[i] = value.Display(v)
	}
	return out, FormatDisplay, nil
}

func encodeAll(vals []value.Value, format serial.Format) ([]string, error) {
	out := make([]string, len(vals))
	for i, v := range vals {
		b, err := serial.Encode(v, format)
		if err != nil {
			return nil, err
		}
		out[i] = string(b)
	}
	return out, nil
}

// unmarshalValue decodes one stored value. Display text decodes to a String.
func unmarshalValue(text, format string, funcs *value.FuncTable) (value.Value, error) {
	switch format {
	case FormatJSON:
		return serial.Decode([]byte(text), serial.FormatJSON, funcs)
	case FormatYAML:
		return serial.Decode([]byte(text), serial.FormatYAML, funcs)
	case FormatDisplay:
		return value.String(text), nil
	}
	return nil, fmt.Errorf("unmarshal value: unknown format %q", format)
}
