package engine

import "sync/atomic"

// Clock is the monotonic fetch counter of a run.
//
// Every fetch is stamped with a strictly increasing seq number from this
// clock before the request is issued, so the first fetch is seq 1 and
// Current() always equals the number of fetches attempted.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// The Engine's single-goroutine loop is the only caller in practice.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
