package record

import (
	"encoding/json"
	"time"
)

// Window is the query range of a single fetch call.
// End stays fixed to the global end for a whole run; Start advances.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Empty reports whether either boundary is missing.
func (w Window) Empty() bool {
	return w.Start == "" || w.End == ""
}

// Record is one row returned by the source.
// Stamp is extracted from the "stamp" field; Raw is the complete object
// exactly as received.
type Record struct {
	Stamp string          `json:"stamp"`
	Raw   json.RawMessage `json:"-"`
}

// Page is the ordered batch of records returned by one fetch call.
// Pages are assumed ascending by stamp; nothing verifies it.
type Page []Record

// FetchEntry describes one completed fetch for the run journal.
type FetchEntry struct {
	Seq       int64  `json:"seq"`
	Window    Window `json:"window"`
	PageLen   int    `json:"page_len"`
	Kept      int    `json:"kept"`
	Terminal  bool   `json:"terminal"`
	NextStart string `json:"next_start,omitempty"` // empty on the terminal fetch
}

// RunInfo describes a run when it starts.
type RunInfo struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Output    string    `json:"output"`
	Range     Window    `json:"range"`
	PageSize  int       `json:"page_size"`
	StartedAt time.Time `json:"started_at"`
}

// Run status values stored in the journal.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunOutcome describes how a run ended.
type RunOutcome struct {
	Status     string    `json:"status"`
	Fetches    int64     `json:"fetches"`
	Records    int64     `json:"records"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}
