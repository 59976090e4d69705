package engine

import (
	"fmt"

	"github.com/roach88/pagesweep/internal/record"
)

// IsTerminal reports whether a page ends the run.
//
// This is an inequality, not less-than: a page longer than the configured
// size is a source contract violation and also ends the run.
func IsTerminal(pageLen, pageSize int) bool {
	return pageLen != pageSize
}

// NextStart derives the next window start from the last record of a full
// page.
//
// The result is the same instant as the record (not one tick later), with
// the zone forced to "Z" and the record's fractional digit count preserved:
//
//	"2016-01-01T00:00:02.1234567Z"      -> "2016-01-01T00:00:02.1234567Z"
//	"2016-01-01T10:00:02.120+02:00"     -> "2016-01-01T10:00:02.120Z"
func NextStart(last record.Record) (string, error) {
	st, err := record.ParseStamp(last.Stamp)
	if err != nil {
		return "", fmt.Errorf("next start: %w", err)
	}
	return st.RelabelUTC().String(), nil
}
