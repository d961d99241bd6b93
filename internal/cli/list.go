package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ListResult holds the list command's results.
type ListResult struct {
	Directory string         `json:"directory"`
	Count     int            `json:"count"`
	Artifacts []ArtifactInfo `json:"artifacts,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <dir>",
		Short: "List recorded artifacts under a directory",
		Long: `List recorded artifacts under a directory tree.

Walks the tree for expect/ recordings and reports each artifact's size.
Artifacts above the size limit are flagged.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runList(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if err := requireDir(dir); err != nil {
		formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return err
	}
	artifacts, err := scanArtifacts(dir)
	if err != nil {
		formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "scanning "+dir, err)
	}
	formatter.VerboseLog("Found %d artifact(s) in %s", len(artifacts), dir)

	if opts.Format == "json" {
		return formatter.Success(ListResult{Directory: dir, Count: len(artifacts), Artifacts: artifacts})
	}

	for _, a := range artifacts {
		if a.Oversize {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\t(over limit)\n", a.Name, a.Size)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\n", a.Name, a.Size)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d artifact(s)\n", len(artifacts))
	return nil
}
