package testutil

import (
	"context"
	"sync"

	"github.com/roach88/pagesweep/internal/record"
)

// AppendCall is one recorded MemorySink.Append call.
type AppendCall struct {
	Records  []record.Record
	Terminal bool
}

// MemorySink records appends in memory.
type MemorySink struct {
	mu        sync.Mutex
	resets    int
	appends   []AppendCall
	resetErr  error
	appendErr map[int]error
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{appendErr: make(map[int]error)}
}

// FailReset makes Reset return err.
func (s *MemorySink) FailReset(err error) *MemorySink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetErr = err
	return s
}

// FailAppendAt makes append call n (1-based) return err.
func (s *MemorySink) FailAppendAt(n int, err error) *MemorySink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr[n] = err
	return s
}

// Reset implements engine.Sink.
func (s *MemorySink) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetErr != nil {
		return s.resetErr
	}
	s.resets++
	s.appends = nil
	return nil
}

// Append implements engine.Sink. Like sink.ArrayFile it refuses to write
// once ctx is done.
func (s *MemorySink) Append(ctx context.Context, records []record.Record, terminal bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.appendErr[len(s.appends)+1]; err != nil {
		return err
	}
	kept := make([]record.Record, len(records))
	copy(kept, records)
	s.appends = append(s.appends, AppendCall{Records: kept, Terminal: terminal})
	return nil
}

// Appends returns the recorded Append calls.
func (s *MemorySink) Appends() []AppendCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]AppendCall, len(s.appends))
	copy(result, s.appends)
	return result
}

// Stamps returns the stamps of every appended record in order.
func (s *MemorySink) Stamps() []string {
	var stamps []string
	for _, call := range s.Appends() {
		for _, r := range call.Records {
			stamps = append(stamps, r.Stamp)
		}
	}
	return stamps
}

// Resets returns how many times Reset succeeded.
func (s *MemorySink) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

// Closed reports whether the last append was terminal.
func (s *MemorySink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appends) > 0 && s.appends[len(s.appends)-1].Terminal
}
