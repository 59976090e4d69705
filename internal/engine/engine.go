package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/pagesweep/internal/record"
)

// Fetcher issues one page query for a window.
// Implemented by source.Client (HTTP) and testutil.ScriptedFetcher (tests).
type Fetcher interface {
	Fetch(ctx context.Context, w record.Window) (record.Page, error)
}

// Sink durably appends kept records to the output artifact.
// Implemented by sink.ArrayFile.
type Sink interface {
	// Reset removes any output left by a previous run.
	Reset() error

	// Append writes records; terminal marks the last call of the run.
	Append(ctx context.Context, records []record.Record, terminal bool) error
}

// Journal records run history. Implemented by store.Store.
// Journal failures are logged and never end a run.
type Journal interface {
	BeginRun(ctx context.Context, info record.RunInfo) error
	RecordFetch(ctx context.Context, runID string, entry record.FetchEntry) error
	FinishRun(ctx context.Context, runID string, outcome record.RunOutcome) error
}

// RunIDGenerator generates run ids.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type RunIDGenerator interface {
	Generate() string
}

// Params is the fixed configuration of a run.
type Params struct {
	// Start and End bound the whole run. End never changes; Start is the
	// first window's start.
	Start string
	End   string

	// PageSize is the source's page cap.
	PageSize int

	// Source and Output label the run in logs, the journal and the summary.
	Source string
	Output string
}

// Engine is the single-goroutine sweep loop.
//
// An Engine may run several times sequentially; every Run starts from a
// fresh RunState and resets the sink. Run must not be called concurrently.
type Engine struct {
	fetcher Fetcher
	sink    Sink
	params  Params

	journal Journal
	logger  *slog.Logger
	runIDs  RunIDGenerator
	now     func() time.Time

	maxFetches int64
}

// Option allows configuration of engine collaborators.
type Option func(*Engine)

// WithJournal records every run and fetch to j.
func WithJournal(j Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithLogger sets the diagnostic logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRunIDGenerator sets the run id source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithNow sets the wall clock used for journal timestamps.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMaxFetches stops a run with an invariant violation once it needs more
// than n fetches. Zero (the default) means unlimited.
func WithMaxFetches(n int64) Option {
	return func(e *Engine) {
		e.maxFetches = n
	}
}

// New creates an Engine that fetches from f and appends to s.
func New(f Fetcher, s Sink, params Params, opts ...Option) *Engine {
	e := &Engine{
		fetcher: f,
		sink:    s,
		params:  params,
		logger:  slog.Default(),
		runIDs:  UUIDv7Generator{},
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run sweeps the whole range once.
//
// Any output left by a previous run is removed before the first fetch.
// Run returns after the terminal page has been appended and the output
// closed, or on the first error. Errors are *RunError values except for
// context cancellation, which is returned as the context's error.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	state := newRunState(e.runIDs.Generate(), e.params.Start, e.params.End, e.maxFetches)
	logger := e.logger.With("run_id", state.RunID)

	logger.Info("sweep starting",
		"source", e.params.Source,
		"start", e.params.Start,
		"end", e.params.End,
		"page_size", e.params.PageSize,
		"output", e.params.Output,
	)

	if e.params.PageSize <= 0 {
		return state.summary(e.params.Output),
			NewInvariantViolation(state.Window, "page size must be positive")
	}

	if err := e.sink.Reset(); err != nil {
		return state.summary(e.params.Output), asRunError(err, func(err error) error {
			return NewFilesystemError("remove prior output", err)
		})
	}

	e.beginJournal(ctx, logger, state)

	for {
		done, err := e.step(ctx, logger, state)
		if err != nil {
			logger.Error("sweep failed",
				"fetches", state.FetchCount(),
				"records", state.TotalCount,
				"error", err,
			)
			e.finishJournal(ctx, logger, state, err)
			return state.summary(e.params.Output), err
		}
		if done {
			break
		}
	}

	logger.Info("sweep complete",
		"fetches", state.FetchCount(),
		"records", state.TotalCount,
		"output", e.params.Output,
	)
	e.finishJournal(ctx, logger, state, nil)

	return state.summary(e.params.Output), nil
}

// step performs one Fetching iteration and reports whether the run is Done.
func (e *Engine) step(ctx context.Context, logger *slog.Logger, state *RunState) (bool, error) {
	w := state.Window

	if w.Empty() {
		return false, NewInvariantViolation(w, "window boundaries must be non-empty")
	}
	bound, err := record.ParseStamp(w.Start)
	if err != nil {
		return false, NewInvariantViolation(w, "window start is not a timestamp")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := state.budget.Spend(state.RunID); err != nil {
		return false, &RunError{
			Code:    ErrCodeInvariant,
			Message: "fetch budget exhausted",
			Window:  w,
			Err:     err,
		}
	}

	seq := state.fetches.Next()
	logger.Debug("fetching page", "seq", seq, "start", w.Start, "end", w.End)

	page, err := e.fetcher.Fetch(ctx, w)
	if err != nil {
		if ctxErr := cancelled(ctx, err); ctxErr != nil {
			return false, ctxErr
		}
		return false, asRunError(err, func(err error) error {
			return NewNetworkError(w, err)
		})
	}

	terminal := IsTerminal(len(page), e.params.PageSize)
	logger.Debug("page received",
		"seq", seq,
		"page_len", len(page),
		"page_size", e.params.PageSize,
		"terminal", terminal,
	)

	var next string
	if !terminal {
		next, err = e.advance(w, bound, page)
		if err != nil {
			return false, err
		}
		logger.Debug("cursor advanced",
			"last_stamp", page[len(page)-1].Stamp,
			"next_start", next,
		)
	}

	kept := FilterOverlap(page, bound, logger)

	if err := e.sink.Append(ctx, kept, terminal); err != nil {
		if ctxErr := cancelled(ctx, err); ctxErr != nil {
			return false, ctxErr
		}
		return false, asRunError(err, func(err error) error {
			return NewFilesystemError("append records", err)
		})
	}

	state.TotalCount += int64(len(kept))
	state.PrevStart = w.Start
	if !terminal {
		state.Window.Start = next
	}

	logger.Info("appended records",
		"seq", seq,
		"kept", len(kept),
		"page_len", len(page),
		"total", state.TotalCount,
	)

	e.recordFetch(ctx, logger, state.RunID, record.FetchEntry{
		Seq:       seq,
		Window:    w,
		PageLen:   len(page),
		Kept:      len(kept),
		Terminal:  terminal,
		NextStart: next,
	})

	return terminal, nil
}

// advance computes the next window start from a full page and checks that
// the cursor moves forward.
func (e *Engine) advance(w record.Window, bound record.Stamp, page record.Page) (string, error) {
	last := page[len(page)-1]

	next, err := NextStart(last)
	if err != nil {
		return "", NewInvariantViolation(w, "last record of a full page has no usable stamp: "+last.Stamp)
	}

	// A full page ending at or before its own start would requery the same
	// window forever.
	nextStamp, err := record.ParseStamp(next)
	if err != nil || !nextStamp.After(bound) {
		return "", NewInvariantViolation(w, "cursor did not advance past "+w.Start+" (next start "+next+")")
	}

	return next, nil
}

func (e *Engine) beginJournal(ctx context.Context, logger *slog.Logger, state *RunState) {
	if e.journal == nil {
		return
	}
	err := e.journal.BeginRun(ctx, record.RunInfo{
		ID:        state.RunID,
		Source:    e.params.Source,
		Output:    e.params.Output,
		Range:     record.Window{Start: e.params.Start, End: e.params.End},
		PageSize:  e.params.PageSize,
		StartedAt: e.now(),
	})
	if err != nil {
		logger.Warn("journal: begin run failed", "error", err)
	}
}

func (e *Engine) recordFetch(ctx context.Context, logger *slog.Logger, runID string, entry record.FetchEntry) {
	if e.journal == nil {
		return
	}
	if err := e.journal.RecordFetch(ctx, runID, entry); err != nil {
		logger.Warn("journal: record fetch failed", "seq", entry.Seq, "error", err)
	}
}

func (e *Engine) finishJournal(ctx context.Context, logger *slog.Logger, state *RunState, runErr error) {
	if e.journal == nil {
		return
	}

	outcome := record.RunOutcome{
		Status:     record.RunStatusCompleted,
		Fetches:    state.FetchCount(),
		Records:    state.TotalCount,
		FinishedAt: e.now(),
	}
	if runErr != nil {
		outcome.Status = record.RunStatusFailed
		outcome.Error = runErr.Error()
	}

	// The run context may already be cancelled; the outcome is still worth
	// recording.
	if err := e.journal.FinishRun(context.WithoutCancel(ctx), state.RunID, outcome); err != nil {
		logger.Warn("journal: finish run failed", "error", err)
	}
}

// cancelled returns the context's error when err was caused by ctx ending.
func cancelled(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return ctxErr
	}
	return nil
}

// asRunError passes *RunError values through and wraps anything else.
func asRunError(err error, wrap func(error) error) error {
	var re *RunError
	if errors.As(err, &re) {
		return err
	}
	return wrap(err)
}
