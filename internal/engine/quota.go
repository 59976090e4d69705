package engine

import (
	"errors"
	"fmt"
)

// FetchBudget caps the number of fetches a run may issue.
//
// The cursor guard already stops a run whose start stops moving. The budget
// is an operator-supplied ceiling on top of that, for sources large enough
// that an unexpectedly long sweep should stop rather than run for hours.
// A limit of zero means unlimited.
type FetchBudget struct {
	limit   int64
	current int64
}

// NewFetchBudget creates a budget allowing limit fetches.
func NewFetchBudget(limit int64) *FetchBudget {
	return &FetchBudget{limit: limit}
}

// Spend records one fetch and fails once the limit is passed.
func (b *FetchBudget) Spend(runID string) error {
	b.current++
	if b.limit > 0 && b.current > b.limit {
		return &BudgetExceededError{
			RunID:   runID,
			Fetches: b.current,
			Limit:   b.limit,
		}
	}
	return nil
}

// Current returns the number of fetches spent.
func (b *FetchBudget) Current() int64 {
	return b.current
}

// Limit returns the configured limit (0 = unlimited).
func (b *FetchBudget) Limit() int64 {
	return b.limit
}

// BudgetExceededError is returned when a run needs more fetches than its
// budget allows.
type BudgetExceededError struct {
	RunID   string
	Fetches int64
	Limit   int64
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded fetch budget: %d fetches > %d limit",
		e.RunID, e.Fetches, e.Limit)
}

// IsBudgetExceededError returns true if the error is a BudgetExceededError.
// Uses errors.As to handle wrapped errors.
func IsBudgetExceededError(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}
