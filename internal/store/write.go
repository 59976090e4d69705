package store

import (
	"context"
	"fmt"

	"github.com/roach88/pagesweep/internal/record"
)

// BeginRun inserts a run in the running state.
func (s *Store) BeginRun(ctx context.Context, info record.RunInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, endpoint, range_start, range_end, page_size, output, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		info.ID,
		info.Source,
		info.Range.Start,
		info.Range.End,
		info.PageSize,
		info.Output,
		record.RunStatusRunning,
		formatTime(info.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordFetch inserts one fetch of a run.
// Uses ON CONFLICT(run_id, seq) DO NOTHING for idempotency - writing the
// same seq twice is silently ignored.
//
// Note: The run referenced by runID must exist (foreign key constraint).
func (s *Store) RecordFetch(ctx context.Context, runID string, entry record.FetchEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fetches
		(run_id, seq, window_start, window_end, page_len, kept, terminal, next_start)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		runID,
		entry.Seq,
		entry.Window.Start,
		entry.Window.End,
		entry.PageLen,
		entry.Kept,
		entry.Terminal,
		entry.NextStart,
	)
	if err != nil {
		return fmt.Errorf("record fetch: %w", err)
	}
	return nil
}

// FinishRun stores how a run ended.
func (s *Store) FinishRun(ctx context.Context, runID string, outcome record.RunOutcome) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, finished_at = ?, fetches = ?, records = ?, error = ?
		WHERE id = ?
	`,
		outcome.Status,
		formatTime(outcome.FinishedAt),
		outcome.Fetches,
		outcome.Records,
		outcome.Error,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: %w: %s", ErrRunNotFound, runID)
	}
	return nil
}
