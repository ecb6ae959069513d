package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/covert/internal/harness"
	"github.com/roach88/covert/internal/serial"
	"github.com/roach88/covert/internal/track"
)

// DeserializeOptions holds flags for the deserialize command.
type DeserializeOptions struct {
	*RootOptions
	Encoding string // encoding of the input blob
	To       string // encoding of the output; defaults to Encoding
}

// NewDeserializeCommand creates the deserialize command.
func NewDeserializeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeserializeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deserialize <blob>",
		Short: "Decode a serialized graph and print it re-encoded",
		Long: `Decode a blob produced by serialize, cover the rebuilt graph and
print it serialized again. Use "-" to read the blob from standard input.

Ref nodes are resolved to shared references; a Ref to a path that was not
decoded first is an error. Function nodes resolve against the built-in
function table.

Examples:
  covert deserialize cart.blob.json
  covert serialize cart.yaml | covert deserialize - --to yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeserialize(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Encoding, "encoding", "json", "input encoding (json|yaml)")
	cmd.Flags().StringVar(&opts.To, "to", "", "output encoding (json|yaml), defaults to --encoding")

	return cmd
}

func runDeserialize(opts *DeserializeOptions, path string, cmd *cobra.Command) error {
	formatter := &Reporter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	in, err := serial.ParseFormat(opts.Encoding)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid encoding", err)
	}
	out := in
	if opts.To != "" {
		if out, err = serial.ParseFormat(opts.To); err != nil {
			return WrapExitError(ExitCommandError, "invalid output encoding", err)
		}
	}

	blob, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read blob", err)
	}
	formatter.Debugf("read %d bytes from %s", len(blob), path)

	root, err := track.Deserialize(blob, in,
		track.WithFuncs(harness.DefaultFuncs()),
		track.WithLogger(newLogger(opts.RootOptions, formatter.DiagWriter())),
	)
	if err != nil {
		if formatter.Format == "json" {
			if outErr := formatter.Error("E_DECODE", err.Error(), nil); outErr != nil {
				return outErr
			}
		}
		return WrapExitError(ExitFailure, "failed to deserialize", err)
	}

	again, err := track.Serialize(root, out)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to serialize", err)
	}
	return writeBlob(formatter, SerializeResult{Source: path, Encoding: string(out), Blob: string(again)})
}
