package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pagesweep/internal/record"
	"github.com/roach88/pagesweep/internal/testutil"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func newSink(t *testing.T) (*ArrayFile, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.json")
	return New(path, testutil.NewLogCapture().Logger()), path
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestArrayFile_TwoAppends(t *testing.T) {
	s, path := newSink(t)
	ctx := context.Background()

	require.NoError(t, s.Reset())
	require.NoError(t, s.Append(ctx, testutil.Page(1, "2016-01-01T00:00:01Z", "2016-01-01T00:00:02Z"), false))
	require.NoError(t, s.Append(ctx, testutil.Page(3, "2016-01-01T00:00:03Z"), true))

	data := readFile(t, path)
	newGoldie(t).Assert(t, "two_appends", data)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 3)
	assert.Equal(t, int64(3), s.Entries())
}

func TestArrayFile_EmptyRange(t *testing.T) {
	s, path := newSink(t)

	require.NoError(t, s.Append(context.Background(), nil, true))

	data := readFile(t, path)
	newGoldie(t).Assert(t, "empty_range", data)

	var decoded []any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Empty(t, decoded)
}

func TestArrayFile_EmptyFirstAppend(t *testing.T) {
	s, path := newSink(t)
	ctx := context.Background()

	// A first page whose records were all filtered still opens the array once.
	require.NoError(t, s.Append(ctx, []record.Record{}, false))
	require.NoError(t, s.Append(ctx, testutil.Page(1, "2016-01-01T00:00:01Z"), true))

	newGoldie(t).Assert(t, "empty_first_append", readFile(t, path))
}

func TestArrayFile_UnterminatedUntilTerminal(t *testing.T) {
	s, path := newSink(t)

	require.NoError(t, s.Append(context.Background(), testutil.Page(1, "2016-01-01T00:00:01Z"), false))

	var decoded []any
	assert.Error(t, json.Unmarshal(readFile(t, path), &decoded), "array is open until the terminal append")
}

func TestArrayFile_IndentsNestedPayload(t *testing.T) {
	s, path := newSink(t)
	rec := record.Record{
		Stamp: "2016-01-01T00:00:01Z",
		Raw:   json.RawMessage(`{"stamp":"2016-01-01T00:00:01Z","user":{"tags":["a","b"]}}`),
	}

	require.NoError(t, s.Append(context.Background(), []record.Record{rec}, true))

	want := "[\n" +
		"{\n" +
		"    \"stamp\": \"2016-01-01T00:00:01Z\",\n" +
		"    \"user\": {\n" +
		"        \"tags\": [\n" +
		"            \"a\",\n" +
		"            \"b\"\n" +
		"        ]\n" +
		"    }\n" +
		"}\n" +
		"]"
	assert.Equal(t, want, string(readFile(t, path)))
}

func TestArrayFile_AppendAfterCloseFails(t *testing.T) {
	s, _ := newSink(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, nil, true))
	assert.ErrorIs(t, s.Append(ctx, nil, true), ErrClosed)
}

func TestArrayFile_ResetRemovesPriorOutput(t *testing.T) {
	logs := testutil.NewLogCapture()
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte("[\n{\"stale\": true}"), 0o644))
	s := New(path, logs.Logger())

	require.NoError(t, s.Reset())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Len(t, logs.EntriesWithMessage("output file detected, deleting"), 1)

	require.NoError(t, s.Append(context.Background(), nil, true))
	assert.Equal(t, "[\n\n]", string(readFile(t, path)))
}

func TestArrayFile_ResetMissingFile(t *testing.T) {
	s, _ := newSink(t)

	assert.NoError(t, s.Reset())
}

func TestArrayFile_ResetClearsState(t *testing.T) {
	s, path := newSink(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, testutil.Page(1, "2016-01-01T00:00:01Z"), true))
	require.NoError(t, s.Reset())
	require.NoError(t, s.Append(ctx, nil, true))

	assert.Equal(t, "[\n\n]", string(readFile(t, path)))
	assert.Equal(t, int64(0), s.Entries())
}

func TestArrayFile_ResetDirectoryFails(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	assert.Error(t, s.Reset())
}

func TestArrayFile_AppendToMissingDirectoryFails(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing", "records.json"), nil)

	err := s.Append(context.Background(), testutil.Page(1, "2016-01-01T00:00:01Z"), false)

	assert.Error(t, err)
	assert.Equal(t, int64(0), s.Entries())
}

func TestArrayFile_InvalidRawRecord(t *testing.T) {
	s, _ := newSink(t)
	rec := record.Record{Stamp: "x", Raw: json.RawMessage(`{not json`)}

	assert.Error(t, s.Append(context.Background(), []record.Record{rec}, false))
}
