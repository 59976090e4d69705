// Package sink writes swept records to the output artifact and verifies it.
//
// The artifact is a single JSON array built by appends: the opening bracket
// is written with the first append of a run, entries are comma-separated
// within and across appends, and the closing bracket is written with the
// terminal append. A run that stops early leaves an unterminated array.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/roach88/pagesweep/internal/record"
)

const (
	arrayOpen      = "[\n"
	arrayClose     = "\n]"
	entrySeparator = ",\n"
	entryIndent    = "    "
)

// ErrClosed is returned by Append after the terminal append.
var ErrClosed = errors.New("output already closed")

// ArrayFile appends records to a JSON array file. It implements engine.Sink.
//
// Every Append opens the file in append mode, writes, syncs and closes it,
// so no handle is held between pages.
type ArrayFile struct {
	path   string
	logger *slog.Logger
	perm   fs.FileMode

	started bool
	closed  bool
	entries int64
}

// New creates a sink writing to path. Nothing touches the filesystem until
// Reset or Append.
func New(path string, logger *slog.Logger) *ArrayFile {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArrayFile{path: path, logger: logger, perm: 0o644}
}

// Path returns the output path.
func (a *ArrayFile) Path() string {
	return a.path
}

// Entries returns the number of records written since the last Reset.
func (a *ArrayFile) Entries() int64 {
	return a.entries
}

// Reset deletes any existing file at the output path and forgets the
// array state. A missing file is not an error.
func (a *ArrayFile) Reset() error {
	a.started = false
	a.closed = false
	a.entries = 0

	info, err := os.Stat(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", a.path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("output path %s is a directory", a.path)
	}

	a.logger.Info("output file detected, deleting", "path", a.path)
	if err := os.Remove(a.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", a.path, err)
	}
	a.logger.Debug("output file deleted", "path", a.path)
	return nil
}

// Append writes records as indented array entries. When terminal is true
// the array is closed and further appends fail with ErrClosed.
func (a *ArrayFile) Append(ctx context.Context, records []record.Record, terminal bool) error {
	if a.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if !a.started {
		buf.WriteString(arrayOpen)
	}
	written := a.entries
	for _, rec := range records {
		if written > 0 {
			buf.WriteString(entrySeparator)
		}
		if err := json.Indent(&buf, rec.Raw, "", entryIndent); err != nil {
			return fmt.Errorf("encode record %q: %w", rec.Stamp, err)
		}
		written++
	}
	if terminal {
		buf.WriteString(arrayClose)
	}

	if err := a.write(buf.Bytes()); err != nil {
		return err
	}

	a.started = true
	a.entries = written
	a.closed = terminal
	a.logger.Debug("output appended",
		"path", a.path,
		"records", len(records),
		"bytes", buf.Len(),
		"closed", terminal,
	)
	return nil
}

func (a *ArrayFile) write(data []byte) (err error) {
	f, err := os.OpenFile(a.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, a.perm)
	if err != nil {
		return fmt.Errorf("open %s: %w", a.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", a.path, cerr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", a.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", a.path, err)
	}
	return nil
}
