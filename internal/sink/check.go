package sink

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/pagesweep/internal/record"
)

// CheckResult summarizes an output artifact.
type CheckResult struct {
	Path       string `json:"path"`
	Entries    int    `json:"entries"`
	FirstStamp string `json:"first_stamp,omitempty"`
	LastStamp  string `json:"last_stamp,omitempty"`

	// Duplicates counts entries byte-identical (after compaction) to an
	// earlier entry.
	Duplicates int `json:"duplicates"`

	// OutOfOrder counts entries whose stamp is before the previous
	// parseable stamp.
	OutOfOrder int `json:"out_of_order"`

	// BadStamps counts entries without a parseable "stamp" field.
	BadStamps int `json:"bad_stamps"`
}

// OK reports whether the artifact has no duplicate, unordered or
// unstamped entries.
func (r CheckResult) OK() bool {
	return r.Duplicates == 0 && r.OutOfOrder == 0 && r.BadStamps == 0
}

// Check reads the artifact at path and verifies it is one complete JSON
// array of stamped records in time order.
//
// An unreadable file or malformed array is returned as an error; content
// problems are counted in the result.
func Check(path string) (CheckResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return CheckResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	result, err := check(bufio.NewReader(f))
	result.Path = path
	if err != nil {
		return result, fmt.Errorf("check %s: %w", path, err)
	}
	return result, nil
}

func check(r io.Reader) (CheckResult, error) {
	var result CheckResult

	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return result, fmt.Errorf("read array start: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return result, fmt.Errorf("expected JSON array, found %v", tok)
	}

	seen := make(map[string]struct{})
	var prev record.Stamp
	var havePrev bool

	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return result, fmt.Errorf("entry %d: %w", result.Entries+1, err)
		}
		result.Entries++

		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return result, fmt.Errorf("entry %d: %w", result.Entries, err)
		}
		key := compact.String()
		if _, dup := seen[key]; dup {
			result.Duplicates++
		} else {
			seen[key] = struct{}{}
		}

		stamp := record.StampOf(raw)
		st, err := record.ParseStamp(stamp)
		if err != nil {
			result.BadStamps++
			continue
		}

		if result.FirstStamp == "" {
			result.FirstStamp = stamp
		}
		result.LastStamp = stamp
		if havePrev && prev.After(st) {
			result.OutOfOrder++
		}
		prev = st
		havePrev = true
	}

	if _, err := dec.Token(); err != nil {
		if errors.Is(err, io.EOF) {
			return result, fmt.Errorf("array is not terminated")
		}
		return result, fmt.Errorf("read array end: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return result, fmt.Errorf("unexpected data after array")
	}

	return result, nil
}
