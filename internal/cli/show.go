package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tensorcheck/internal/value"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <artifact>",
		Short: "Render a recorded artifact",
		Long: `Decode a recorded artifact and render its contents.

Text mode renders YAML; --format json emits the same tree inside the
standard JSON envelope. Tensors are rendered with their dtype, shape,
layout, and payload.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runShow(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		formatter.Error(ErrCodeNotFound, "cannot read artifact: "+path, nil)
		return WrapExitError(ExitCommandError, "reading "+path, err)
	}

	decoded, err := value.Decode(data)
	if err != nil {
		formatter.Error(ErrCodeDecode, "artifact failed to decode: "+path, err.Error())
		return WrapExitError(ExitFailure, "decoding "+path, err)
	}
	formatter.VerboseLog("Decoded %d byte artifact %s", len(data), path)

	if opts.Format == "json" {
		canonical, err := value.MarshalJSONCanonical(decoded)
		if err != nil {
			return err
		}
		return formatter.Success(json.RawMessage(canonical))
	}

	out, err := yaml.Marshal(renderTree(decoded))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
