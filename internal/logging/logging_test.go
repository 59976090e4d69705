package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("sweep starting", "page_size", 100)
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "msg=\"sweep starting\"")
	assert.Contains(t, out, "page_size=100")
	assert.NotContains(t, out, "hidden")
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Console: &buf, Level: "warn", Verbose: true})
	require.NoError(t, err)

	logger.Debug("cursor advanced")

	assert.Contains(t, buf.String(), "cursor advanced")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Console: &buf, Level: "warn"})
	require.NoError(t, err)

	logger.Info("appended records")
	logger.Warn("journal: record fetch failed")

	assert.NotContains(t, buf.String(), "appended records")
	assert.Contains(t, buf.String(), "journal: record fetch failed")
}

func TestNew_JSONConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Console: &buf, Format: "json"})
	require.NoError(t, err)

	logger.Info("sweep complete", "records", 4)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sweep complete", entry["msg"])
	assert.Equal(t, float64(4), entry["records"])
}

func TestNew_FileFanout(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "sweep.log")
	logger, closer, err := New(Options{Console: &buf, File: path})
	require.NoError(t, err)

	logger.With("run_id", "run-1").Info("sweep starting")
	require.NoError(t, closer.Close())

	assert.Contains(t, buf.String(), "sweep starting")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "run-1", entry["run_id"])
}

func TestNew_QuietWithFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "sweep.log")
	logger, closer, err := New(Options{Console: &buf, File: path, Quiet: true})
	require.NoError(t, err)

	logger.Info("only in file")
	require.NoError(t, closer.Close())

	assert.Empty(t, buf.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "only in file")
}

func TestNew_InvalidOptions(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	_, _, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}
