package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pagesweep/internal/sink"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <output-file>",
		Short: "Verify a sweep output file",
		Long: `Verify that a sweep output file is one complete JSON array whose
records are in stamp order without duplicates.

A file left behind by a failed or interrupted sweep has no closing
bracket and fails the check.

Exit codes:
  0 - File is complete and consistent
  1 - File is incomplete, or has duplicate, unordered or unstamped records
  2 - Command error (file not found, etc.)

Examples:
  pagesweep check records.json
  pagesweep check records.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("output file not found: %s", path)
		}
		formatter.ReportError("FILE_ERROR", err, nil)
		return WrapExitError(ExitCommandError, "cannot check output", err)
	}

	formatter.VerboseLog("Checking %s", path)
	result, err := sink.Check(path)
	if err != nil {
		formatter.ReportError("MALFORMED_OUTPUT", err, nil)
		return WrapExitError(ExitFailure, "output is not a complete array", err)
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		writeCheckText(cmd.OutOrStdout(), result)
	}

	if !result.OK() {
		return NewExitError(ExitFailure, "output check failed")
	}
	return nil
}

func writeCheckText(w io.Writer, result sink.CheckResult) {
	status := "OK"
	if !result.OK() {
		status = "FAILED"
	}
	fmt.Fprintf(w, "Check %s: %s\n", result.Path, status)
	textPrinter.Fprintf(w, "  Entries:      %d\n", result.Entries)
	if result.Entries > 0 {
		fmt.Fprintf(w, "  First stamp:  %s\n", result.FirstStamp)
		fmt.Fprintf(w, "  Last stamp:   %s\n", result.LastStamp)
	}
	textPrinter.Fprintf(w, "  Duplicates:   %d\n", result.Duplicates)
	textPrinter.Fprintf(w, "  Out of order: %d\n", result.OutOfOrder)
	textPrinter.Fprintf(w, "  Bad stamps:   %d\n", result.BadStamps)
}
