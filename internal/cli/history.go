package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pagesweep/internal/record"
	"github.com/roach88/pagesweep/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Journal string
	RunID   string // optional - show one run with its fetches
	Limit   int
}

// RunDetail is one journaled run with its fetches.
type RunDetail struct {
	store.Run
	FetchLog []record.FetchEntry `json:"fetch_log"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled sweeps",
		Long: `Show sweeps recorded in a run journal.

Without --run, lists the most recent runs. With --run, shows that run and
every fetch it made: the window requested, the page length, how many
records were kept and where the next window started.

Examples:
  pagesweep history --journal runs.db
  pagesweep history --journal runs.db --limit 5
  pagesweep history --journal runs.db --run 01912f3e-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite run journal (required)")
	_ = cmd.MarkFlagRequired("journal")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run with its fetches")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to list (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// store.Open creates missing databases; history must not.
	if _, err := os.Stat(opts.Journal); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("journal not found: %s", opts.Journal)
		}
		formatter.ReportError("JOURNAL_ERROR", err, nil)
		return WrapExitError(ExitCommandError, "cannot read journal", err)
	}

	st, err := store.Open(opts.Journal)
	if err != nil {
		formatter.ReportError("JOURNAL_ERROR", err, nil)
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if err != nil {
			if errors.Is(err, store.ErrRunNotFound) {
				formatter.ReportError("RUN_NOT_FOUND", err, nil)
				return WrapExitError(ExitFailure, "unknown run", err)
			}
			formatter.ReportError("JOURNAL_ERROR", err, nil)
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		fetches, err := st.ReadFetches(ctx, opts.RunID)
		if err != nil {
			formatter.ReportError("JOURNAL_ERROR", err, nil)
			return WrapExitError(ExitCommandError, "failed to read fetches", err)
		}

		detail := RunDetail{Run: run, FetchLog: fetches}
		if opts.Format == "json" {
			return formatter.Success(detail)
		}
		writeRunDetail(cmd.OutOrStdout(), detail)
		return nil
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		formatter.ReportError("JOURNAL_ERROR", err, nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in journal.")
		return nil
	}
	writeRunList(cmd.OutOrStdout(), runs)
	return nil
}

func writeRunList(w io.Writer, runs []store.Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTATUS\tSTARTED\tFETCHES\tRECORDS\tDURATION")
	for _, run := range runs {
		textPrinter.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			run.ID,
			run.Status,
			run.StartedAt.Format(time.RFC3339),
			run.Fetches,
			run.Records,
			formatDuration(run),
		)
	}
	_ = tw.Flush()
}

func writeRunDetail(w io.Writer, d RunDetail) {
	fmt.Fprintf(w, "Run: %s\n", d.ID)
	fmt.Fprintf(w, "Status: %s\n", d.Status)
	fmt.Fprintf(w, "Source: %s\n", d.Endpoint)
	fmt.Fprintf(w, "Range: %s .. %s\n", d.Range.Start, d.Range.End)
	fmt.Fprintf(w, "Output: %s\n", d.Output)
	textPrinter.Fprintf(w, "Records: %d in %d fetches (page size %d)\n", d.Records, d.Fetches, d.PageSize)
	if d.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", d.Error)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fetches:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  SEQ\tSTART\tPAGE\tKEPT\tNEXT")
	for _, f := range d.FetchLog {
		next := f.NextStart
		if f.Terminal {
			next = "(last)"
		}
		fmt.Fprintf(tw, "  %d\t%s\t%d\t%d\t%s\n", f.Seq, f.Window.Start, f.PageLen, f.Kept, next)
	}
	_ = tw.Flush()
}

func formatDuration(run store.Run) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.Duration().Round(time.Millisecond).String()
}
