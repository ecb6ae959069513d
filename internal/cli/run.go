package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/covert/internal/harness"
	"github.com/roach88/covert/internal/journal"
	"github.com/roach88/covert/internal/metrics"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string // journal path; empty disables journaling
	Metrics  bool   // print Prometheus text metrics after the feed
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Scenario string           `json:"scenario"`
	Pass     bool             `json:"pass"`
	Changes  []harness.Change `json:"changes"`
	Final    string           `json:"final"`
	Errors   []string         `json:"errors,omitempty"`
	Metrics  string           `json:"metrics,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario and print its change feed",
		Long: `Run a single scenario file and print every change it produced.

With --db the feed is also written to a SQLite journal as a new session;
the session id is printed so "covert trace" can read it back. With
--metrics the change counters are printed in Prometheus text format.

Exit codes:
  0 - Scenario passed
  1 - A step or assertion failed
  2 - Command error (unreadable scenario, journal failure, etc.)

Examples:
  covert run scenarios/cart_edits.yaml
  covert run scenarios/cart_edits.yaml --db ./covert.db
  covert run scenarios/cart_edits.yaml --metrics --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (optional)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print change metrics in Prometheus text format")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := &Reporter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runOpts := []harness.RunOption{
		harness.WithLogger(newLogger(opts.RootOptions, formatter.DiagWriter())),
	}

	var sessionID string
	if opts.Database != "" {
		j, err := journal.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				formatter.Debugf("error closing journal: %v", closeErr)
			}
		}()

		sessionID, err = j.BeginSession(ctx, path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to begin session", err)
		}
		formatter.Debugf("journal session %s", sessionID)
		runOpts = append(runOpts, harness.WithObserver(j.Observer(ctx, sessionID)))
	}

	var rec *metrics.Recorder
	if opts.Metrics {
		rec = metrics.NewRecorder()
		runOpts = append(runOpts, harness.WithObserver(rec.Observer()))
	}

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	out := RunResult{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Changes:  result.Changes,
		Final:    result.Final,
		Errors:   result.Errors,
	}
	if rec != nil {
		var buf strings.Builder
		if err := rec.WriteText(&buf); err != nil {
			return WrapExitError(ExitCommandError, "failed to render metrics", err)
		}
		out.Metrics = buf.String()
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: out, SessionID: sessionID}
		if !out.Pass {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_SCENARIO_FAILED", Message: fmt.Sprintf("scenario %s failed", out.Scenario)}
		}
		if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
	} else {
		writeRunText(cmd.OutOrStdout(), out, sessionID)
	}

	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", out.Scenario))
	}
	return nil
}

// writeRunText prints the feed one change per line.
func writeRunText(w io.Writer, out RunResult, sessionID string) {
	fmt.Fprintf(w, "Scenario: %s\n", out.Scenario)
	if sessionID != "" {
		fmt.Fprintf(w, "Session: %s\n", sessionID)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Changes ===")
	if len(out.Changes) == 0 {
		fmt.Fprintln(w, "  (no changes)")
	}
	for _, c := range out.Changes {
		fmt.Fprintf(w, "  %s\n", formatChange(c.Seq, c.Op, c.Method, c.Path, c.Old, c.New))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Final ===")
	fmt.Fprintf(w, "  %s\n", out.Final)

	if out.Metrics != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Metrics ===")
		fmt.Fprint(w, out.Metrics)
	}

	fmt.Fprintln(w)
	if out.Pass {
		fmt.Fprintln(w, "✓ passed")
		return
	}
	fmt.Fprintln(w, "✗ failed")
	for _, e := range out.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// formatChange renders one change as "[seq] op(method) path: old -> new".
func formatChange(seq int64, op, method, path, old, new string) string {
	if method != "" {
		op += "(" + method + ")"
	}
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("[%d] %s %s: %s -> %s", seq, op, path, old, new)
}
