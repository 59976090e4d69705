// Package harness runs sweep scenarios described in YAML against the real
// engine.
//
// A scenario scripts the pages the source returns, call by call, and states
// what the run must produce. The harness drives engine.Engine with a
// testutil.ScriptedFetcher, a real sink.ArrayFile in a temporary directory
// and an in-memory journal, then checks the expectations and, for
// successful runs, compares the output artifact with a golden file.
//
// # Scenario Format
//
//	name: overlap_cap_two
//	description: "Full pages requery at the last stamp"
//	page_size: 2
//	start: "2016-01-01T00:00:00Z"       # optional, default config.DefaultStart
//	end: "2017-12-31T23:59:59.9999999Z" # optional, default config.DefaultEnd
//	pages:
//	  - ["2016-01-01T00:00:01Z", "2016-01-01T00:00:02Z"]
//	  - ["2016-01-01T00:00:02Z", "2016-01-01T00:00:03Z"]
//	  - ["2016-01-01T00:00:04Z"]
//	expect:
//	  records: 4
//	  fetches: 3
//	  windows: ["2016-01-01T00:00:00Z", "2016-01-01T00:00:02Z", "2016-01-01T00:00:03Z"]
//	  error: ""                         # optional RunError code
//
// Records get ids counting up from 1 across all pages, so the golden
// artifact shows exactly which records were kept.
//
// # Deterministic Testing
//
// Every run uses a fixed run id and a step clock, so journal contents and
// artifacts are identical across runs. Golden files live in
// testdata/golden/{name}.golden; regenerate them with
//
//	go test ./internal/harness -update
package harness
