// Package logging builds the process logger: a console handler on stderr,
// optionally fanned out to a rotating JSON log file.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	maxFileSizeMB  = 50
	maxFileBackups = 5
	maxFileAgeDays = 28
)

// Options configures New.
type Options struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string

	// Verbose forces debug level.
	Verbose bool

	// Format of the console handler: text (default) or json.
	Format string

	// File, when set, also writes JSON logs to this path with rotation.
	File string

	// Console is where console logs go. Nil means os.Stderr.
	Console io.Writer

	// Quiet suppresses the console handler.
	Quiet bool
}

// New creates a logger from opts. The returned closer releases the log
// file and must be called before exit; it is a no-op without a file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handlers []slog.Handler
	if !opts.Quiet {
		console := opts.Console
		if console == nil {
			console = os.Stderr
		}
		handler, err := newHandler(console, opts.Format, handlerOpts)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, handler)
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxFileSizeMB,
			MaxBackups: maxFileBackups,
			MaxAge:     maxFileAgeDays,
		}
		handlers = append(handlers, newGuardedHandler(slog.NewJSONHandler(file, handlerOpts)))
		closer = file
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) (slog.Handler, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (must be text or json)", format)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

var _ slog.Handler = (*guardedHandler)(nil)

// guardedHandler serializes writes to the log file so lines from handlers
// derived with With never interleave.
type guardedHandler struct {
	slog.Handler
	mu *sync.Mutex
}

func newGuardedHandler(h slog.Handler) *guardedHandler {
	return &guardedHandler{Handler: h, mu: &sync.Mutex{}}
}

// Handle implements slog.Handler.
func (g *guardedHandler) Handle(ctx context.Context, r slog.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Handler.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (g *guardedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &guardedHandler{Handler: g.Handler.WithAttrs(attrs), mu: g.mu}
}

// WithGroup implements slog.Handler.
func (g *guardedHandler) WithGroup(name string) slog.Handler {
	return &guardedHandler{Handler: g.Handler.WithGroup(name), mu: g.mu}
}
