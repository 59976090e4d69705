package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/pagesweep/internal/record"
)

// ScriptedFetcher returns pre-built pages in call order.
//
// Call n (1-based) returns the n-th page; calls past the end of the script
// return an empty page. Every requested window is recorded so tests can
// assert on cursor movement.
//
// Thread-safety: all methods are safe for concurrent use.
type ScriptedFetcher struct {
	mu     sync.Mutex
	pages  []record.Page
	errs   map[int]error
	calls  []record.Window
	before func(call int)
}

// NewScriptedFetcher creates a fetcher that serves pages in order.
func NewScriptedFetcher(pages ...record.Page) *ScriptedFetcher {
	return &ScriptedFetcher{
		pages: pages,
		errs:  make(map[int]error),
	}
}

// FailAt makes call n (1-based) return err instead of a page.
func (f *ScriptedFetcher) FailAt(n int, err error) *ScriptedFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[n] = err
	return f
}

// OnCall registers a hook run at the start of every call with its 1-based
// index. Used to cancel contexts mid-run.
func (f *ScriptedFetcher) OnCall(hook func(call int)) *ScriptedFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.before = hook
	return f
}

// Fetch implements engine.Fetcher.
func (f *ScriptedFetcher) Fetch(ctx context.Context, w record.Window) (record.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, w)
	n := len(f.calls)
	hook := f.before
	err := f.errs[n]
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if n > len(f.pages) {
		return record.Page{}, nil
	}
	page := make(record.Page, len(f.pages[n-1]))
	copy(page, f.pages[n-1])
	return page, nil
}

// Calls returns the windows requested so far.
func (f *ScriptedFetcher) Calls() []record.Window {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]record.Window, len(f.calls))
	copy(result, f.calls)
	return result
}

// CallCount returns the number of Fetch calls.
func (f *ScriptedFetcher) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Starts returns the start boundary of every requested window.
func (f *ScriptedFetcher) Starts() []string {
	calls := f.Calls()
	starts := make([]string, len(calls))
	for i, w := range calls {
		starts[i] = w.Start
	}
	return starts
}

// String describes the script for failure messages.
func (f *ScriptedFetcher) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("ScriptedFetcher{pages: %d, calls: %d}", len(f.pages), len(f.calls))
}
