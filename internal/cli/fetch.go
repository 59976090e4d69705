package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pagesweep/internal/config"
	"github.com/roach88/pagesweep/internal/engine"
	"github.com/roach88/pagesweep/internal/logging"
	"github.com/roach88/pagesweep/internal/sink"
	"github.com/roach88/pagesweep/internal/source"
	"github.com/roach88/pagesweep/internal/store"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	ConfigPath string
	Endpoint   string
	Start      string
	End        string
	PageSize   int
	Output     string
	Journal    string
	Timeout    time.Duration
	MaxFetches int64

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	return newFetchCommand(&FetchOptions{RootOptions: rootOpts})
}

func newFetchCommand(opts *FetchOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Sweep the configured range into the output file",
		Long: `Sweep a time range from a paginated source into one JSON array file.

Windows are requested from the range start. Whenever a page comes back
full, the next window starts at the stamp of that page's last record and
the record that overlaps the previous page is dropped. The sweep ends at
the first page shorter than the page size. Any existing output file is
deleted before the first request.

Flags override the configuration file; the file overrides the defaults.

Exit codes:
  0 - Sweep complete
  1 - Sweep failed (network, server, filesystem or cursor error)
  2 - Command error (invalid configuration, journal cannot be opened)

Examples:
  pagesweep fetch --endpoint https://api.example.com/records
  pagesweep fetch --config sweep.yaml --page-size 500 --journal runs.db
  pagesweep fetch --config sweep.toml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file (.yaml, .yml or .toml)")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "source URL")
	cmd.Flags().StringVar(&opts.Start, "start", config.DefaultStart, "range start timestamp")
	cmd.Flags().StringVar(&opts.End, "end", config.DefaultEnd, "range end timestamp")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", config.DefaultPageSize, "source page cap")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", config.DefaultOutput, "output file")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite run journal (disabled when empty)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", config.DefaultTimeout, "per-request timeout")
	cmd.Flags().Int64Var(&opts.MaxFetches, "max-fetches", 0, "fail a sweep that needs more fetches (0 = unlimited)")

	return cmd
}

// loadFetchConfig builds the sweep configuration: defaults, then the
// config file, then every flag the user set explicitly.
func loadFetchConfig(opts *FetchOptions, cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Source.Endpoint = opts.Endpoint
	}
	if flags.Changed("timeout") {
		cfg.Source.Timeout = opts.Timeout
	}
	if flags.Changed("start") {
		cfg.Range.Start = opts.Start
	}
	if flags.Changed("end") {
		cfg.Range.End = opts.End
	}
	if flags.Changed("page-size") {
		cfg.PageSize = opts.PageSize
	}
	if flags.Changed("output") {
		cfg.Output = opts.Output
	}
	if flags.Changed("journal") {
		cfg.Journal = opts.Journal
	}
	if flags.Changed("max-fetches") {
		cfg.MaxFetches = opts.MaxFetches
	}
	if opts.LogFile != "" {
		cfg.Logging.File = opts.LogFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runFetch(opts *FetchOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadFetchConfig(opts, cmd)
	if err != nil {
		formatter.ReportError("CONFIG_ERROR", err, nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Verbose: opts.Verbose,
		Format:  cfg.Logging.Format,
		File:    cfg.Logging.File,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	defer logCloser.Close()

	client, err := source.New(source.Options{
		Endpoint:  cfg.Source.Endpoint,
		Timeout:   cfg.Source.Timeout,
		UserAgent: cfg.Source.UserAgent,
		Logger:    logger,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create source client", err)
	}

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMaxFetches(cfg.MaxFetches),
	}
	if opts.RunIDs != nil {
		engineOpts = append(engineOpts, engine.WithRunIDGenerator(opts.RunIDs))
	}

	if cfg.Journal != "" {
		st, err := store.Open(cfg.Journal)
		if err != nil {
			formatter.ReportError("JOURNAL_ERROR", err, nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer closeJournal(st, logger)
		engineOpts = append(engineOpts, engine.WithJournal(st))
	}

	out := sink.New(cfg.Output, logger)
	eng := engine.New(client, out, engine.Params{
		Start:    cfg.Range.Start,
		End:      cfg.Range.End,
		PageSize: cfg.PageSize,
		Source:   client.Endpoint(),
		Output:   out.Path(),
	}, engineOpts...)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := eng.Run(ctx)
	if err != nil {
		code := "INTERRUPTED"
		var re *engine.RunError
		if errors.As(err, &re) {
			code = string(re.Code)
		}
		formatter.ReportError(code, err, summary)
		if code == "INTERRUPTED" {
			return WrapExitError(ExitFailure, "sweep interrupted", err)
		}
		return WrapExitError(ExitFailure, "sweep failed", err)
	}

	formatter.VerboseLog("Wrote %d entries to %s", out.Entries(), out.Path())
	if opts.Format == "json" {
		return formatter.Success(summary)
	}
	writeFetchSummary(cmd.OutOrStdout(), summary)
	return nil
}

func writeFetchSummary(w io.Writer, summary engine.Summary) {
	textPrinter.Fprintf(w, "Sweep complete: %d records in %d fetches\n", summary.Records, summary.Fetches)
	fmt.Fprintf(w, "Output: %s\n", summary.Output)
	fmt.Fprintf(w, "Run:    %s\n", summary.RunID)
}

func closeJournal(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing journal", "error", err)
	}
}
