package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/pagesweep/internal/record"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestRun creates run info with minimal required fields.
func createTestRun(id string, startedAt time.Time) record.RunInfo {
	return record.RunInfo{
		ID:     id,
		Source: "http://source.test/records",
		Output: "records.json",
		Range: record.Window{
			Start: "2016-01-01T00:00:00Z",
			End:   "2017-12-31T23:59:59.9999999Z",
		},
		PageSize:  100,
		StartedAt: startedAt,
	}
}
