package engine

import "github.com/roach88/pagesweep/internal/record"

// RunState is the mutable state of one run.
//
// It is created fresh by Run and threaded through every iteration; nothing
// else holds a reference to it.
type RunState struct {
	// RunID identifies the run in logs and in the journal.
	RunID string

	// TotalCount is the number of records appended so far.
	// It never decreases.
	TotalCount int64

	// Window is the window the next fetch will use.
	Window record.Window

	// PrevStart is the start boundary used by the most recent fetch,
	// i.e. the bound its page was filtered against.
	PrevStart string

	fetches *Clock
	budget  *FetchBudget
}

func newRunState(runID string, start, end string, maxFetches int64) *RunState {
	return &RunState{
		RunID:   runID,
		Window:  record.Window{Start: start, End: end},
		fetches: NewClock(),
		budget:  NewFetchBudget(maxFetches),
	}
}

// FetchCount returns the number of fetches issued so far.
func (s *RunState) FetchCount() int64 {
	return s.fetches.Current()
}

// Summary reports the result of a run.
type Summary struct {
	RunID   string `json:"run_id"`
	Fetches int64  `json:"fetches"`
	Records int64  `json:"records"`
	Output  string `json:"output"`
}

func (s *RunState) summary(output string) Summary {
	return Summary{
		RunID:   s.RunID,
		Fetches: s.FetchCount(),
		Records: s.TotalCount,
		Output:  output,
	}
}
