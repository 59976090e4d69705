package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/pagesweep/internal/engine"
)

var knownErrorCodes = []engine.RunErrorCode{
	engine.ErrCodeNetwork,
	engine.ErrCodeServer,
	engine.ErrCodeFilesystem,
	engine.ErrCodeInvariant,
}

func knownErrorCode(code string) bool {
	return slices.Contains(knownErrorCodes, engine.RunErrorCode(code))
}

// checkExpectations compares a finished run with the scenario's Expect
// block and records every mismatch on the result.
func checkExpectations(s *Scenario, r *Result) {
	want := s.Expect

	if r.RunError != want.Error {
		r.AddError(fmt.Sprintf("run error: expected %q, got %q", want.Error, r.RunError))
	}
	if r.Summary.Records != want.Records {
		r.AddError(fmt.Sprintf("records: expected %d, got %d", want.Records, r.Summary.Records))
	}
	if r.Summary.Fetches != want.Fetches {
		r.AddError(fmt.Sprintf("fetches: expected %d, got %d", want.Fetches, r.Summary.Fetches))
	}
	if want.Windows != nil && !slices.Equal(r.Windows, want.Windows) {
		r.AddError(fmt.Sprintf("windows: expected %v, got %v", want.Windows, r.Windows))
	}

	// Every completed fetch is journaled and kept counts add up to the total.
	var kept int64
	terminal := 0
	for _, f := range r.Fetches {
		kept += int64(f.Kept)
		if f.Terminal {
			terminal++
		}
	}
	if kept != r.Summary.Records {
		r.AddError(fmt.Sprintf("journal kept sum %d differs from total %d", kept, r.Summary.Records))
	}
	if r.RunError == "" && terminal != 1 {
		r.AddError(fmt.Sprintf("expected exactly one terminal fetch, got %d", terminal))
	}
	if r.RunError != "" && terminal != 0 {
		r.AddError(fmt.Sprintf("failed run has %d terminal fetches", terminal))
	}
}
