package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pagesweep/internal/record"
)

// Scenario scripts one sweep.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// PageSize is the page cap given to the engine.
	PageSize int `yaml:"page_size"`

	// Start and End bound the run. Empty means the configuration defaults.
	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`

	// MaxFetches is passed to the engine's fetch budget (0 = unlimited).
	MaxFetches int64 `yaml:"max_fetches,omitempty"`

	// Pages are the stamps returned by fetch 1, 2, ... Fetches past the end
	// return an empty page.
	Pages [][]string `yaml:"pages"`

	// Expect states what the run must produce.
	Expect Expectations `yaml:"expect"`
}

// Expectations are checked after the run. Zero values are still checked,
// except Windows, which is only checked when present.
type Expectations struct {
	Records int64    `yaml:"records"`
	Fetches int64    `yaml:"fetches"`
	Windows []string `yaml:"windows,omitempty"`

	// Error is the RunError code the run must fail with; empty means the
	// run must succeed.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "page_sise:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive")
	}

	if len(s.Pages) == 0 {
		return fmt.Errorf("pages list is required and must be non-empty")
	}

	for _, bound := range []string{s.Start, s.End} {
		if bound == "" {
			continue
		}
		if _, err := record.ParseStamp(bound); err != nil {
			return fmt.Errorf("range bound: %w", err)
		}
	}

	if s.Expect.Error != "" && !knownErrorCode(s.Expect.Error) {
		return fmt.Errorf("unknown expected error code %q", s.Expect.Error)
	}

	return nil
}
