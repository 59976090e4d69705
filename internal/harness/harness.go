package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/pagesweep/internal/config"
	"github.com/roach88/pagesweep/internal/engine"
	"github.com/roach88/pagesweep/internal/record"
	"github.com/roach88/pagesweep/internal/sink"
	"github.com/roach88/pagesweep/internal/store"
	"github.com/roach88/pagesweep/internal/testutil"
)

const scenarioRunID = "scenario-run"

var scenarioEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh temporary directory with a fresh in-memory
// journal. A run that fails is not an error here: the failure code is
// recorded and checked against Expect.Error. Run only returns an error
// when the scenario cannot be set up.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with engine and sink diagnostics sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	dir, err := os.MkdirTemp("", "pagesweep-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario dir: %w", err)
	}
	defer os.RemoveAll(dir)

	journal, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer journal.Close()

	fetcher := testutil.NewScriptedFetcher(buildPages(scenario.Pages)...)
	output := filepath.Join(dir, "records.json")
	out := sink.New(output, logger)

	params := engine.Params{
		Start:    orDefault(scenario.Start, config.DefaultStart),
		End:      orDefault(scenario.End, config.DefaultEnd),
		PageSize: scenario.PageSize,
		Source:   "scenario:" + scenario.Name,
		Output:   output,
	}
	eng := engine.New(fetcher, out, params,
		engine.WithLogger(logger),
		engine.WithJournal(journal),
		engine.WithRunIDGenerator(engine.NewFixedGenerator(scenarioRunID)),
		engine.WithNow(testutil.NewStepClock(scenarioEpoch, time.Second).Now),
		engine.WithMaxFetches(scenario.MaxFetches),
	)

	ctx := context.Background()
	result := NewResult()

	summary, runErr := eng.Run(ctx)
	result.Summary = summary
	result.Windows = fetcher.Starts()
	if runErr != nil {
		var re *engine.RunError
		if !errors.As(runErr, &re) {
			return nil, fmt.Errorf("scenario run: %w", runErr)
		}
		result.RunError = string(re.Code)
	}

	result.Fetches, err = journal.ReadFetches(ctx, scenarioRunID)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	result.Output, err = os.ReadFile(output)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read output: %w", err)
	}

	checkExpectations(scenario, result)
	return result, nil
}

// buildPages turns scripted stamps into records with ids counting up from 1
// across the whole script.
func buildPages(stamps [][]string) []record.Page {
	pages := make([]record.Page, len(stamps))
	id := 1
	for i, page := range stamps {
		pages[i] = testutil.Page(id, page...)
		id += len(page)
	}
	return pages
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
