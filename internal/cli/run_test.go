package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covert/internal/journal"
)

const cartScenario = "testdata/scenarios/cart_edits.yaml"

// writeScenario writes a scenario file into dir next to a copy of the cart
// document and returns its path.
func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	doc, err := os.ReadFile(cartDocument)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart.json"), doc, 0644))

	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRunMissingArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestRunNonExistentScenario(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/scenario.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenario")
}

func TestRunText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{cartScenario})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Scenario: cart_edits")
	assert.NotContains(t, out, "Session:")
	assert.Contains(t, out, "[1] set items.0.qty: 1 -> 3")
	assert.Contains(t, out, "[3] delete note: null -> undefined")
	assert.Contains(t, out, `[4] set items.2: undefined -> {sku: "c-3", qty: 1}`)
	assert.Contains(t, out, "=== Final ===")
	assert.Contains(t, out, "✓ passed")
}

func TestRunJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{cartScenario})

	require.NoError(t, cmd.Execute())

	var result RunResult
	resp := decodeResponse(t, buf.Bytes(), &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.SessionID)
	assert.Equal(t, "cart_edits", result.Scenario)
	assert.True(t, result.Pass)
	require.Len(t, result.Changes, 5)
	assert.Equal(t, "items.0.qty", result.Changes[0].Path)
	assert.Equal(t, int64(5), result.Changes[4].Seq)
	assert.Empty(t, result.Metrics)
}

func TestRunWithJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "covert.db")

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{cartScenario, "--db", dbPath})

	require.NoError(t, cmd.Execute())

	resp := decodeResponse(t, buf.Bytes(), nil)
	require.NotEmpty(t, resp.SessionID)

	j, err := journal.Open(dbPath)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	sessions, err := j.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, resp.SessionID, sessions[0].ID)
	assert.Equal(t, cartScenario, sessions[0].Source)

	changes, err := j.ReadSession(ctx, resp.SessionID)
	require.NoError(t, err)
	require.Len(t, changes, 5)
	assert.Equal(t, "items.0.qty", changes[0].Path)
	assert.Equal(t, "count", changes[4].Path)
}

func TestRunTwiceAppendsSessions(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "covert.db")

	for i := 0; i < 2; i++ {
		cmd := NewRunCommand(&RootOptions{Format: "text"})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{cartScenario, "--db", dbPath})
		require.NoError(t, cmd.Execute())
	}

	j, err := journal.Open(dbPath)
	require.NoError(t, err)
	defer j.Close()

	sessions, err := j.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.NotEqual(t, sessions[0].ID, sessions[1].ID)
}

func TestRunWithMetrics(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{cartScenario, "--metrics"})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "=== Metrics ===")
	assert.Contains(t, out, "covert_changes_total")
	assert.Contains(t, out, "covert_last_seq 5")
}

func TestRunFailingScenario(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "wrong_count", `name: wrong_count
description: "Asserts the wrong number of changes"
document: cart.json
steps:
  - op: set
    path: count
    value: 3
assertions:
  - type: change_count
    count: 2
`)

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario wrong_count failed")
	assert.Contains(t, buf.String(), "✗ failed")
	assert.Contains(t, buf.String(), "assertions[0]")
}

func TestRunFailingScenarioJSON(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "bad_step", `name: bad_step
description: "Writes beneath a missing property"
document: cart.json
steps:
  - op: set
    path: missing.deep
    value: 1
assertions:
  - type: change_count
    count: 0
`)

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result RunResult
	resp := decodeResponse(t, buf.Bytes(), &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_SCENARIO_FAILED", resp.Error.Code)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "steps[0]")
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "[1] set a.b: 1 -> 2", formatChange(1, "set", "", "a.b", "1", "2"))
	assert.Equal(t, "[2] add(add) tags: undefined -> \"x\"", formatChange(2, "add", "add", "tags", "undefined", `"x"`))
	assert.Equal(t, "[3] set <root>: 1 -> 2", formatChange(3, "set", "", "", "1", "2"))
}
