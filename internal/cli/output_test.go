package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &Reporter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"final": "Map(1) {1 => 2}"})
	require.NoError(t, err)

	// HTML characters stay literal.
	assert.Contains(t, buf.String(), `"final": "Map(1) {1 => 2}"`)

	var resp CLIResponse
	require.NoError(t, jsonAPI.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestReporter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &Reporter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E203", "syntax error", map[string]int{"line": 3})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, jsonAPI.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E203", resp.Error.Code)
	assert.Equal(t, "syntax error", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestReporter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &Reporter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("E201", "read failed", "doc.json"))
			assert.Contains(t, buf.String(), "Error [E201]: read failed")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details: doc.json")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestReporter_DebugfUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	diag := &bytes.Buffer{}
	formatter := &Reporter{Format: "json", Writer: out, ErrWriter: diag, Verbose: true}

	formatter.Debugf("loaded %s", "cart.json")
	assert.Empty(t, out.String())
	assert.Equal(t, "loaded cart.json\n", diag.String())
	assert.Same(t, diag, formatter.DiagWriter())

	quiet := &Reporter{Format: "text", Writer: out}
	quiet.Debugf("hidden")
	assert.Empty(t, out.String())
	assert.Same(t, out, quiet.DiagWriter())
}

func TestExitError(t *testing.T) {
	base := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to open journal", base)

	assert.Equal(t, "failed to open journal: disk full", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", err)))

	assert.Equal(t, "2 scenario(s) failed", NewExitError(ExitFailure, "2 scenario(s) failed").Error())
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}
