package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// PruneResult holds the prune command's results.
type PruneResult struct {
	Directory string         `json:"directory"`
	DryRun    bool           `json:"dry_run,omitempty"`
	Count     int            `json:"count"`
	Bytes     int64          `json:"bytes"`
	Removed   []ArtifactInfo `json:"removed,omitempty"`
}

// NewPruneCommand creates the prune command.
func NewPruneCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		match        string
		oversizeOnly bool
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "prune <dir>",
		Short: "Delete recorded artifacts",
		Long: `Delete recorded artifacts under a directory tree.

Use --match to restrict deletion to artifacts whose file name matches a
glob, --oversize to delete only recordings above the size limit, and
--dry-run to report what would be deleted without touching anything.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(rootOpts, args[0], match, oversizeOnly, dryRun, cmd)
		},
	}

	cmd.Flags().StringVar(&match, "match", "*", "glob matched against artifact file names")
	cmd.Flags().BoolVar(&oversizeOnly, "oversize", false, "only delete artifacts above the size limit")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without deleting")

	return cmd
}

func runPrune(opts *RootOptions, dir, match string, oversizeOnly, dryRun bool, cmd *cobra.Command) error {
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
	if _, err := filepath.Match(match, "probe"); err != nil {
		formatter.Error(ErrCodeBadMatch, "malformed --match pattern: "+match, nil)
		return WrapExitError(ExitCommandError, "malformed --match pattern "+match, err)
	}

	artifacts, err := scanArtifacts(dir)
	if err != nil {
		formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "scanning "+dir, err)
	}

	result := PruneResult{Directory: dir, DryRun: dryRun}
	for _, a := range artifacts {
		ok, _ := filepath.Match(match, filepath.Base(a.Name))
		if !ok || (oversizeOnly && !a.Oversize) {
			continue
		}
		if !dryRun {
			if err := os.Remove(a.Path); err != nil {
				formatter.Error(ErrCodeNotFound, "removing "+a.Name, err.Error())
				return WrapExitError(ExitCommandError, "removing "+a.Name, err)
			}
		}
		result.Removed = append(result.Removed, a)
		result.Count++
		result.Bytes += a.Size
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	verb := "removed"
	if dryRun {
		verb = "would remove"
	}
	for _, a := range result.Removed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%d bytes\n", verb, a.Name, a.Size)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d artifact(s), %d bytes\n", verb, result.Count, result.Bytes)
	return nil
}
