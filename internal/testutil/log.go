package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// LogEntry is one captured log record.
type LogEntry struct {
	Level   slog.Level
	Message string
	Fields  map[string]any
}

// LogCapture collects slog records for assertions.
type LogCapture struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewLogCapture creates an empty capture.
func NewLogCapture() *LogCapture {
	return &LogCapture{}
}

// Logger returns a *slog.Logger that writes to this capture at every level.
func (c *LogCapture) Logger() *slog.Logger {
	return slog.New(&captureHandler{capture: c})
}

// Entries returns every captured entry in order.
func (c *LogCapture) Entries() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]LogEntry, len(c.entries))
	copy(result, c.entries)
	return result
}

// EntriesByLevel returns the entries logged at level.
func (c *LogCapture) EntriesByLevel(level slog.Level) []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result []LogEntry
	for _, e := range c.entries {
		if e.Level == level {
			result = append(result, e)
		}
	}
	return result
}

// EntriesWithMessage returns the entries whose message is msg.
func (c *LogCapture) EntriesWithMessage(msg string) []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result []LogEntry
	for _, e := range c.entries {
		if e.Message == msg {
			result = append(result, e)
		}
	}
	return result
}

// HasWarning reports whether anything was logged at Warn.
func (c *LogCapture) HasWarning() bool {
	return len(c.EntriesByLevel(slog.LevelWarn)) > 0
}

// HasError reports whether anything was logged at Error.
func (c *LogCapture) HasError() bool {
	return len(c.EntriesByLevel(slog.LevelError)) > 0
}

func (c *LogCapture) add(e LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}

type captureHandler struct {
	capture *LogCapture
	attrs   []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})

	h.capture.add(LogEntry{Level: r.Level, Message: r.Message, Fields: fields})
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &captureHandler{capture: h.capture, attrs: merged}
}

// WithGroup is accepted but groups are flattened.
func (h *captureHandler) WithGroup(string) slog.Handler {
	return h
}
