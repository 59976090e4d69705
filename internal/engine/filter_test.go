package engine

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/pagesweep/internal/record"
	"github.com/roach88/pagesweep/internal/testutil"
)

func stampsOf(records []record.Record) []string {
	stamps := make([]string, len(records))
	for i, r := range records {
		stamps[i] = r.Stamp
	}
	return stamps
}

func TestFilterOverlap_DropsRecordAtBound(t *testing.T) {
	logs := testutil.NewLogCapture()
	bound := record.MustParseStamp("2016-01-01T00:00:02Z")
	page := testutil.Page(1,
		"2016-01-01T00:00:02Z",
		"2016-01-01T00:00:03Z",
	)

	kept := FilterOverlap(page, bound, logs.Logger())

	assert.Equal(t, []string{"2016-01-01T00:00:03Z"}, stampsOf(kept))
	dropped := logs.EntriesWithMessage("discarding duplicate record")
	if assert.Len(t, dropped, 1) {
		assert.Equal(t, slog.LevelDebug, dropped[0].Level)
		assert.Equal(t, "2016-01-01T00:00:02Z", dropped[0].Fields["stamp"])
	}
}

func TestFilterOverlap_DropsRecordsBeforeBound(t *testing.T) {
	bound := record.MustParseStamp("2016-01-01T00:00:02Z")
	page := testutil.Page(1,
		"2016-01-01T00:00:01Z",
		"2016-01-01T00:00:02Z",
		"2016-01-01T00:00:02.000001Z",
	)

	kept := FilterOverlap(page, bound, testutil.NewLogCapture().Logger())

	assert.Equal(t, []string{"2016-01-01T00:00:02.000001Z"}, stampsOf(kept))
}

func TestFilterOverlap_ComparesInstantsAcrossPrecision(t *testing.T) {
	// Same instant written with different precision and zone.
	bound := record.MustParseStamp("2016-01-01T00:00:02.500Z")
	page := testutil.Page(1,
		"2016-01-01T00:00:02.5Z",
		"2016-01-01T02:00:02.5+02:00",
		"2016-01-01T00:00:02.5000001Z",
	)

	kept := FilterOverlap(page, bound, testutil.NewLogCapture().Logger())

	assert.Equal(t, []string{"2016-01-01T00:00:02.5000001Z"}, stampsOf(kept))
}

func TestFilterOverlap_UnparseableStampWarns(t *testing.T) {
	logs := testutil.NewLogCapture()
	bound := record.MustParseStamp("2016-01-01T00:00:00Z")
	page := record.Page{
		testutil.Rec("not a time", 1),
		{Raw: []byte(`[1,2]`)},
		testutil.Rec("2016-01-01T00:00:01Z", 3),
	}

	kept := FilterOverlap(page, bound, logs.Logger())

	assert.Equal(t, []string{"2016-01-01T00:00:01Z"}, stampsOf(kept))
	assert.Len(t, logs.EntriesByLevel(slog.LevelWarn), 2)
}

func TestFilterOverlap_KeepsOrderAndPayload(t *testing.T) {
	bound := record.MustParseStamp("2016-01-01T00:00:00Z")
	page := testutil.Page(10,
		"2016-01-01T00:00:01Z",
		"2016-01-01T00:00:02Z",
		"2016-01-01T00:00:03Z",
	)

	kept := FilterOverlap(page, bound, testutil.NewLogCapture().Logger())

	assert.Equal(t, []record.Record(page), kept)
}

func TestFilterOverlap_EmptyPage(t *testing.T) {
	bound := record.MustParseStamp("2016-01-01T00:00:00Z")

	kept := FilterOverlap(nil, bound, testutil.NewLogCapture().Logger())

	assert.NotNil(t, kept)
	assert.Empty(t, kept)
}
