package testutil

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pagesweep/internal/record"
)

func TestScriptedFetcher_ServesPagesInOrder(t *testing.T) {
	f := NewScriptedFetcher(
		Page(1, "2016-01-01T00:00:01Z"),
		Page(2, "2016-01-01T00:00:02Z", "2016-01-01T00:00:03Z"),
	)
	ctx := context.Background()
	w := record.Window{Start: "a", End: "b"}

	p1, err := f.Fetch(ctx, w)
	require.NoError(t, err)
	assert.Len(t, p1, 1)

	p2, err := f.Fetch(ctx, w)
	require.NoError(t, err)
	assert.Len(t, p2, 2)

	// Past the end of the script
	p3, err := f.Fetch(ctx, w)
	require.NoError(t, err)
	assert.Empty(t, p3)

	assert.Equal(t, 3, f.CallCount())
	assert.Equal(t, []string{"a", "a", "a"}, f.Starts())
}

func TestScriptedFetcher_FailAt(t *testing.T) {
	boom := errors.New("boom")
	f := NewScriptedFetcher(Page(1, "2016-01-01T00:00:01Z")).FailAt(1, boom)

	_, err := f.Fetch(context.Background(), record.Window{Start: "a", End: "b"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, f.CallCount())
}

func TestScriptedFetcher_ReturnsCopies(t *testing.T) {
	f := NewScriptedFetcher(Page(1, "2016-01-01T00:00:01Z"))

	p, err := f.Fetch(context.Background(), record.Window{})
	require.NoError(t, err)
	p[0].Stamp = "mutated"

	assert.Equal(t, "2016-01-01T00:00:01Z", f.pages[0][0].Stamp)
}

func TestMemorySink_RecordsAppends(t *testing.T) {
	s := NewMemorySink()
	ctx := context.Background()

	require.NoError(t, s.Reset())
	require.NoError(t, s.Append(ctx, Page(1, "x", "y"), false))
	assert.False(t, s.Closed())
	require.NoError(t, s.Append(ctx, Page(3, "z"), true))

	assert.True(t, s.Closed())
	assert.Equal(t, []string{"x", "y", "z"}, s.Stamps())
	assert.Equal(t, 1, s.Resets())
}

func TestMemorySink_FailAppendAt(t *testing.T) {
	boom := errors.New("disk full")
	s := NewMemorySink().FailAppendAt(2, boom)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, nil, false))
	assert.ErrorIs(t, s.Append(ctx, nil, true), boom)
	assert.Len(t, s.Appends(), 1)
}

func TestRec_CarriesStampInPayload(t *testing.T) {
	r := Rec("2016-01-01T00:00:01Z", 7)

	assert.Equal(t, "2016-01-01T00:00:01Z", r.Stamp)
	assert.JSONEq(t, `{"id":7,"stamp":"2016-01-01T00:00:01Z"}`, string(r.Raw))
}

func TestLogCapture_CapturesLevelsAndAttrs(t *testing.T) {
	c := NewLogCapture()
	logger := c.Logger().With("run_id", "r1")

	logger.Debug("fine", "n", 1)
	logger.Warn("careful", "stamp", "bad")

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, slog.LevelDebug, entries[0].Level)
	assert.Equal(t, "r1", entries[0].Fields["run_id"])
	assert.Equal(t, int64(1), entries[0].Fields["n"])

	assert.True(t, c.HasWarning())
	assert.False(t, c.HasError())
	assert.Len(t, c.EntriesWithMessage("careful"), 1)
}

func TestStepClock_Advances(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewStepClock(start, time.Second)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Second), c.Now())
	assert.Equal(t, int64(2), c.Reads())

	c.Reset()
	assert.Equal(t, start, c.Now())
}

func TestStepClock_ThreadSafe(t *testing.T) {
	c := NewStepClock(time.Unix(0, 0), time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Now()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), c.Reads())
}
