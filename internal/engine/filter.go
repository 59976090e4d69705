package engine

import (
	"log/slog"

	"github.com/roach88/pagesweep/internal/record"
)

// FilterOverlap returns the records of page that are strictly after bound,
// the start of the window that fetched the page.
//
// Records at or before bound are the deliberate requery overlap and are
// dropped at debug level. Records whose stamp does not parse are dropped
// with a warning. The relative order of kept records is unchanged.
func FilterOverlap(page record.Page, bound record.Stamp, logger *slog.Logger) []record.Record {
	kept := make([]record.Record, 0, len(page))
	for _, rec := range page {
		st, err := record.ParseStamp(rec.Stamp)
		if err != nil {
			logger.Warn("discarding record with unparseable stamp",
				"stamp", rec.Stamp,
				"error", err,
			)
			continue
		}
		if !st.After(bound) {
			logger.Debug("discarding duplicate record",
				"stamp", rec.Stamp,
				"bound", bound.String(),
			)
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}
