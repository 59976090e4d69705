package harness

import (
	"github.com/roach88/pagesweep/internal/engine"
	"github.com/roach88/pagesweep/internal/record"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates every expectation held.
	Pass bool `json:"pass"`

	// Summary is what the engine returned.
	Summary engine.Summary `json:"summary"`

	// Windows are the window starts the engine requested, in order.
	Windows []string `json:"windows"`

	// Fetches are the journal entries of the run.
	Fetches []record.FetchEntry `json:"fetches"`

	// Output is the artifact content, nil when the run wrote nothing.
	Output []byte `json:"-"`

	// RunError is the code of the error the run failed with, if any.
	RunError string `json:"run_error,omitempty"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Windows: []string{},
		Fetches: []record.FetchEntry{},
		Errors:  []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
