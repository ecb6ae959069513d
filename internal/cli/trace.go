package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/covert/internal/harness"
	"github.com/roach88/covert/internal/journal"
	"github.com/roach88/covert/internal/value"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string // optional - list sessions when empty
	Path     string // optional - filter to a path and everything beneath it
}

// TraceEvent is one journaled change with decoded values rendered for
// display.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Op     string `json:"op"`
	Path   string `json:"path"`
	Method string `json:"method,omitempty"`
	Old    string `json:"old"`
	New    string `json:"new"`
}

// TraceResult holds the complete trace output for one session.
type TraceResult struct {
	Session  string       `json:"session"`
	Source   string       `json:"source"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for a session.
type TraceStats struct {
	TotalChanges int            `json:"total_changes"`
	LastSeq      int64          `json:"last_seq"`
	Ops          map[string]int `json:"ops"`
	Paths        []string       `json:"paths"`
}

// SessionList is the output when no session is selected.
type SessionList struct {
	Sessions []SessionInfo `json:"sessions"`
}

// SessionInfo describes one journaled session.
type SessionInfo struct {
	ID      string `json:"id"`
	Source  string `json:"source"`
	Changes int    `json:"changes"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Read change feeds from a journal",
		Long: `Read change feeds written by "covert run --db".

Without --session, lists the journaled sessions in creation order. With
--session, prints that session's changes in seq order followed by summary
statistics. --path narrows the timeline to a path and everything beneath it.

Examples:
  covert trace --db ./covert.db
  covert trace --db ./covert.db --session 0192...
  covert trace --db ./covert.db --session 0192... --path items
  covert trace --db ./covert.db --session 0192... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id to trace")
	cmd.Flags().StringVar(&opts.Path, "path", "", "filter to a path and its descendants")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	if opts.Session == "" {
		return listSessions(ctx, opts, j, cmd)
	}

	sum, err := j.Summarize(ctx, opts.Session)
	if errors.Is(err, journal.ErrSessionNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to summarize session", err)
	}

	changes, err := j.ReadPath(ctx, opts.Session, opts.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	timeline, err := buildTimeline(changes)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode change", err)
	}

	ops := make(map[string]int, len(sum.Ops))
	for op, n := range sum.Ops {
		ops[string(op)] = n
	}
	result := TraceResult{
		Session:  sum.Session.ID,
		Source:   sum.Session.Source,
		Timeline: timeline,
		Stats: TraceStats{
			TotalChanges: sum.Changes,
			LastSeq:      sum.LastSeq,
			Ops:          ops,
			Paths:        sum.Paths,
		},
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, SessionID: result.Session})
	}
	return outputTraceText(cmd.OutOrStdout(), result)
}

func listSessions(ctx context.Context, opts *TraceOptions, j *journal.Journal, cmd *cobra.Command) error {
	sessions, err := j.Sessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	list := SessionList{Sessions: make([]SessionInfo, 0, len(sessions))}
	for _, s := range sessions {
		changes, err := j.ReadSession(ctx, s.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read session", err)
		}
		list.Sessions = append(list.Sessions, SessionInfo{ID: s.ID, Source: s.Source, Changes: len(changes)})
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: list})
	}

	w := cmd.OutOrStdout()
	if len(list.Sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	for _, s := range list.Sessions {
		fmt.Fprintf(w, "%s  %-4d %s\n", s.ID, s.Changes, s.Source)
	}
	return nil
}

// buildTimeline decodes journaled values and renders them the way the run
// command does.
func buildTimeline(changes []journal.Change) ([]TraceEvent, error) {
	funcs := harness.DefaultFuncs()
	timeline := make([]TraceEvent, 0, len(changes))
	for _, c := range changes {
		_, old, new, err := c.Values(funcs)
		if err != nil {
			return nil, err
		}
		timeline = append(timeline, TraceEvent{
			Seq:    c.Seq,
			Op:     string(c.Op),
			Path:   c.Path,
			Method: c.Method,
			Old:    renderJournaled(old, c.ValueFormat),
			New:    renderJournaled(new, c.ValueFormat),
		})
	}
	return timeline, nil
}

// renderJournaled renders a decoded value. Values stored in display form
// decode to their display text, which is printed as is.
func renderJournaled(v value.Value, format string) string {
	if s, ok := v.(value.String); ok && format == journal.FormatDisplay {
		return string(s)
	}
	return value.Display(v)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult) error {
	fmt.Fprintf(w, "Trace for Session: %s\n", result.Session)
	fmt.Fprintf(w, "Source: %s\n", result.Source)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no changes)")
	}
	for _, e := range result.Timeline {
		fmt.Fprintf(w, "  %s\n", formatChange(e.Seq, e.Op, e.Method, e.Path, e.Old, e.New))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Changes: %d\n", result.Stats.TotalChanges)
	fmt.Fprintf(w, "  Last Seq:      %d\n", result.Stats.LastSeq)

	ops := make([]string, 0, len(result.Stats.Ops))
	for op := range result.Stats.Ops {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		fmt.Fprintf(w, "  %-14s %d\n", op+":", result.Stats.Ops[op])
	}
	fmt.Fprintf(w, "  Paths:         %d\n", len(result.Stats.Paths))

	return nil
}
