package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartDocument = "testdata/scenarios/cart.json"

// rawResponse mirrors CLIResponse with the payload left undecoded.
type rawResponse struct {
	Status    string              `json:"status"`
	Data      jsoniter.RawMessage `json:"data"`
	Error     *CLIError           `json:"error"`
	SessionID string              `json:"session_id"`
}

// decodeResponse parses a JSON CLI response and decodes its payload into
// data when data is non-nil.
func decodeResponse(t *testing.T, out []byte, data any) rawResponse {
	t.Helper()
	var resp rawResponse
	require.NoError(t, jsonAPI.Unmarshal(out, &resp), "output: %s", out)
	if data != nil {
		require.NoError(t, jsonAPI.Unmarshal(resp.Data, data))
	}
	return resp
}

func TestSerializeText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewSerializeCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{cartDocument})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `{"$t":"Object","$d":[`), out)
	assert.Contains(t, out, `["name","cart"]`)
	assert.Contains(t, out, `["sku","a-1"]`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestSerializeYAML(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewSerializeCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{cartDocument, "--encoding", "yaml"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "$t: Object")
	assert.Contains(t, buf.String(), "a-1")
}

func TestSerializeJSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewSerializeCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{cartDocument})

	require.NoError(t, cmd.Execute())

	var result SerializeResult
	resp := decodeResponse(t, buf.Bytes(), &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, cartDocument, result.Source)
	assert.Equal(t, "json", result.Encoding)
	assert.Contains(t, result.Blob, `["name","cart"]`)
}

func TestSerializeInvalidEncoding(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewSerializeCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{cartDocument, "--encoding", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}

func TestSerializeMissingDocument(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewSerializeCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.json")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load document")

	resp := decodeResponse(t, buf.Bytes(), nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.NotEmpty(t, resp.Error.Code)
}

func TestSerializeUnknownFunction(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "doc.yaml")
	require.NoError(t, os.WriteFile(doc, []byte("f: !func nope\n"), 0644))

	buf := &bytes.Buffer{}
	cmd := NewSerializeCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{doc})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `function "nope" is not registered`)
}

func TestDeserializeRoundTrip(t *testing.T) {
	blob := &bytes.Buffer{}
	ser := NewSerializeCommand(&RootOptions{Format: "text"})
	ser.SetOut(blob)
	ser.SetArgs([]string{cartDocument})
	require.NoError(t, ser.Execute())

	buf := &bytes.Buffer{}
	cmd := NewDeserializeCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetIn(bytes.NewReader(blob.Bytes()))
	cmd.SetArgs([]string{"-"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, blob.String(), buf.String())
}

func TestDeserializeSharedReference(t *testing.T) {
	file := filepath.Join(t.TempDir(), "shared.json")
	blob := `{"$t":"Object","$d":[["b",{"$t":"Ref","$d":["a"]}],["a",{"$t":"Object","$d":[["v",1]]}]]}`
	require.NoError(t, os.WriteFile(file, []byte(blob), 0644))

	buf := &bytes.Buffer{}
	cmd := NewDeserializeCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{file})

	// "b" is decoded before "a", so the Ref has no target yet.
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to deserialize")
}

func TestDeserializeToYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "obj.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"$t":"Object","$d":[["v",1]]}`), 0644))

	buf := &bytes.Buffer{}
	cmd := NewDeserializeCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{file, "--to", "yaml"})

	require.NoError(t, cmd.Execute())

	var result SerializeResult
	decodeResponse(t, buf.Bytes(), &result)
	assert.Equal(t, "yaml", result.Encoding)
	assert.Contains(t, result.Blob, "$t: Object")
}

func TestDeserializeInvalidBlob(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewDeserializeCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader(`{"$t":"Bogus","$d":[]}`))
	cmd.SetArgs([]string{"-"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, buf.Bytes(), nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DECODE", resp.Error.Code)
}
