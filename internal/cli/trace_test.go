package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/covert/internal/journal"
)

// journalRun runs the cart scenario with --db and returns the journal path
// and session id.
func journalRun(t *testing.T) (string, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "covert.db")

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{cartScenario, "--db", dbPath})
	require.NoError(t, cmd.Execute())

	resp := decodeResponse(t, buf.Bytes(), nil)
	require.NotEmpty(t, resp.SessionID)
	return dbPath, resp.SessionID
}

func TestTraceMissingDatabaseFlag(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--session", "abc"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceNonExistentDatabase(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", "/nonexistent/path/covert.db"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to open journal")
}

func TestTraceEmptyJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "covert.db")
	j, err := journal.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No sessions found.")
}

func TestTraceListSessions(t *testing.T) {
	dbPath, sessionID := journalRun(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())

	var list SessionList
	decodeResponse(t, buf.Bytes(), &list)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, sessionID, list.Sessions[0].ID)
	assert.Equal(t, cartScenario, list.Sessions[0].Source)
	assert.Equal(t, 5, list.Sessions[0].Changes)
}

func TestTraceSessionText(t *testing.T) {
	dbPath, sessionID := journalRun(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--session", sessionID})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Trace for Session: "+sessionID)
	assert.Contains(t, out, "Source: "+cartScenario)
	assert.Contains(t, out, "[1] set items.0.qty: 1 -> 3")
	assert.Contains(t, out, "[2] set paid: false -> true")
	// Undefined is journaled as null.
	assert.Contains(t, out, `[4] set items.2: null -> {sku: "c-3", qty: 1}`)
	assert.Contains(t, out, "Total Changes: 5")
	assert.Contains(t, out, "Last Seq:      5")
	assert.Contains(t, out, "delete:")
}

func TestTraceSessionJSON(t *testing.T) {
	dbPath, sessionID := journalRun(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--session", sessionID})

	require.NoError(t, cmd.Execute())

	var result TraceResult
	resp := decodeResponse(t, buf.Bytes(), &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, sessionID, resp.SessionID)
	require.Len(t, result.Timeline, 5)
	for i, e := range result.Timeline {
		assert.Equal(t, int64(i+1), e.Seq)
	}
	assert.Equal(t, 5, result.Stats.TotalChanges)
	assert.Equal(t, 4, result.Stats.Ops["set"])
	assert.Equal(t, 1, result.Stats.Ops["delete"])
	assert.Equal(t, []string{"items.0.qty", "paid", "note", "items.2", "count"}, result.Stats.Paths)
}

func TestTracePathFilter(t *testing.T) {
	dbPath, sessionID := journalRun(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--session", sessionID, "--path", "items"})

	require.NoError(t, cmd.Execute())

	var result TraceResult
	decodeResponse(t, buf.Bytes(), &result)
	require.Len(t, result.Timeline, 2)
	assert.Equal(t, "items.0.qty", result.Timeline[0].Path)
	assert.Equal(t, "items.2", result.Timeline[1].Path)
	// Stats always cover the whole session.
	assert.Equal(t, 5, result.Stats.TotalChanges)
}

func TestTraceUnknownSession(t *testing.T) {
	dbPath, _ := journalRun(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--session", "missing"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "session not found: missing")
}

func TestBuildTimelineEmpty(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "covert.db"))
	require.NoError(t, err)
	defer j.Close()

	changes, err := j.ReadSession(context.Background(), "none")
	require.NoError(t, err)
	timeline, err := buildTimeline(changes)
	require.NoError(t, err)
	assert.Empty(t, timeline)
}
