package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pagesweep/internal/engine"
)

const testEnd = "2016-01-02T00:00:00Z"

// recordServer serves n records, one per minute from 00:01 on 2016-01-01,
// capping each answer at pageSize like a real paginated source.
type recordServer struct {
	*httptest.Server
	requests atomic.Int64
}

func newRecordServer(t *testing.T, n, pageSize int) *recordServer {
	t.Helper()

	base := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	stamps := make([]time.Time, n)
	for i := range stamps {
		stamps[i] = base.Add(time.Duration(i+1) * time.Minute)
	}

	rs := &recordServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.requests.Add(1)

		start, err := time.Parse(time.RFC3339Nano, r.URL.Query().Get("startDate"))
		if err != nil {
			http.Error(w, "bad startDate", http.StatusBadRequest)
			return
		}
		end, err := time.Parse(time.RFC3339Nano, r.URL.Query().Get("endDate"))
		if err != nil {
			http.Error(w, "bad endDate", http.StatusBadRequest)
			return
		}

		page := []map[string]any{}
		for i, s := range stamps {
			if s.Before(start) || s.After(end) {
				continue
			}
			if len(page) == pageSize {
				break
			}
			page = append(page, map[string]any{"id": i + 1, "stamp": s.Format(time.RFC3339)})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func failingServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "source unavailable", status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newTestFetchCommand returns a fetch command with a fixed run id whose
// stdout and stderr go to separate buffers.
func newTestFetchCommand(format string, args ...string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	opts := &FetchOptions{
		RootOptions: &RootOptions{Format: format},
		RunIDs:      engine.NewFixedGenerator("run-1"),
	}
	cmd := newFetchCommand(opts)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	return cmd, stdout, stderr
}

func fetchArgs(endpoint, output string, pageSize int, extra ...string) []string {
	args := []string{
		"--endpoint", endpoint,
		"--end", testEnd,
		"--page-size", fmt.Sprint(pageSize),
		"--output", output,
	}
	return append(args, extra...)
}

// decodeSummary reads the data of a JSON success response.
func decodeSummary(t *testing.T, out []byte) engine.Summary {
	t.Helper()

	var resp struct {
		Status string         `json:"status"`
		Data   engine.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out, &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}
