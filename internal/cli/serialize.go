package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/covert/internal/harness"
	"github.com/roach88/covert/internal/loader"
	"github.com/roach88/covert/internal/serial"
	"github.com/roach88/covert/internal/track"
	"github.com/roach88/covert/internal/value"
)

// SerializeOptions holds flags for the serialize command.
type SerializeOptions struct {
	*RootOptions
	Encoding string // json | yaml
}

// SerializeResult is the JSON payload of serialize and deserialize.
type SerializeResult struct {
	Source   string `json:"source"`
	Encoding string `json:"encoding"`
	Blob     string `json:"blob"`
}

// NewSerializeCommand creates the serialize command.
func NewSerializeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SerializeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serialize <document>",
		Short: "Cover a document and print its serialized form",
		Long: `Load a document, cover it and print the serialized graph.

Documents are JSON (.json), YAML (.yaml, .yml) or CUE (.cue). YAML documents
may use the tags !date, !regexp, !map, !set, !func and !undefined; !func
names resolve against the built-in function table (increment, rename, greet).

Shared references serialize as Ref nodes addressing the first path they
were reached at.

Examples:
  covert serialize cart.json
  covert serialize cart.yaml --encoding yaml
  covert serialize cart.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSerialize(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Encoding, "encoding", "json", "serialized encoding (json|yaml)")

	return cmd
}

func runSerialize(opts *SerializeOptions, path string, cmd *cobra.Command) error {
	formatter := &Reporter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	encoding, err := serial.ParseFormat(opts.Encoding)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid encoding", err)
	}

	funcs := harness.DefaultFuncs()
	raw, err := loader.Load(path, funcs)
	if err != nil {
		return loadFailure(formatter, err)
	}
	formatter.Debugf("loaded %s (%s)", path, value.KindOf(raw))

	ctx := track.New(track.WithFuncs(funcs), track.WithLogger(newLogger(opts.RootOptions, formatter.DiagWriter())))
	root, err := ctx.Cover(raw)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to cover document", err)
	}
	blob, err := track.Serialize(root, encoding)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to serialize document", err)
	}

	return writeBlob(formatter, SerializeResult{Source: path, Encoding: string(encoding), Blob: string(blob)})
}

// loadFailure reports a document load error with its code and exits with
// ExitCommandError.
func loadFailure(formatter *Reporter, err error) error {
	code := "E_LOAD"
	var le *loader.LoadError
	if errors.As(err, &le) {
		code = le.Code
	}
	if formatter.Format == "json" {
		if outErr := formatter.Error(code, err.Error(), nil); outErr != nil {
			return outErr
		}
	}
	return WrapExitError(ExitCommandError, "failed to load document", err)
}

// writeBlob prints a serialized graph: the raw blob as text, or wrapped in
// a CLIResponse as JSON.
func writeBlob(formatter *Reporter, result SerializeResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	blob := result.Blob
	if len(blob) > 0 && blob[len(blob)-1] == '\n' {
		blob = blob[:len(blob)-1]
	}
	return formatter.Success(blob)
}

// readInput reads a file, or standard input for "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
