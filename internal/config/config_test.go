package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Endpoint:  "https://records.example.com/api/v1/records",
			Timeout:   10 * time.Second,
			UserAgent: "sweeper/2",
		},
		Range: RangeConfig{
			Start: "2016-06-01T00:00:00Z",
			End:   "2016-07-01T00:00:00.000Z",
		},
		PageSize:   250,
		Output:     "june.json",
		Journal:    "runs.db",
		MaxFetches: 5000,
		Logging: LoggingConfig{
			Level:  "debug",
			Format: "json",
			File:   "sweep.log",
		},
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "2016-01-01T00:00:00Z", cfg.Range.Start)
	assert.Equal(t, "2017-12-31T23:59:59.9999999Z", cfg.Range.End)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, "records.json", cfg.Output)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout)
	assert.Empty(t, cfg.Source.Endpoint)
	assert.Error(t, cfg.Validate(), "defaults alone lack an endpoint")
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load("testdata/sweep.yaml")
	require.NoError(t, err)

	assert.Equal(t, fullConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_TOML(t *testing.T) {
	cfg, err := Load("testdata/sweep.toml")
	require.NoError(t, err)

	assert.Equal(t, fullConfig(), cfg)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Load("testdata/partial.yaml")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/records", cfg.Source.Endpoint)
	assert.Equal(t, DefaultStart, cfg.Range.Start)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, DefaultTimeout, cfg.Source.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	badYAML := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("source: [unclosed"), 0o644))
	jsonFile := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte("{}"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"missing file", filepath.Join(dir, "absent.yaml"), "does not exist"},
		{"unknown yaml key", "testdata/unknown.yaml", "page_sise"},
		{"unknown toml key", "testdata/unknown.toml", "retries"},
		{"malformed yaml", badYAML, "failed to parse"},
		{"unsupported extension", jsonFile, "unsupported config format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing endpoint", func(c *Config) { c.Source.Endpoint = "" }, "endpoint must be specified"},
		{"relative endpoint", func(c *Config) { c.Source.Endpoint = "/records" }, "absolute http(s) URL"},
		{"ftp endpoint", func(c *Config) { c.Source.Endpoint = "ftp://host/records" }, "absolute http(s) URL"},
		{"negative timeout", func(c *Config) { c.Source.Timeout = -time.Second }, "timeout"},
		{"zero timeout allowed", func(c *Config) { c.Source.Timeout = 0 }, ""},
		{"bad start", func(c *Config) { c.Range.Start = "2016-06-01" }, "range start"},
		{"bad end", func(c *Config) { c.Range.End = "tomorrow" }, "range end"},
		{"start equals end", func(c *Config) { c.Range.End = c.Range.Start }, "must be before end"},
		{"start after end", func(c *Config) { c.Range.Start, c.Range.End = c.Range.End, c.Range.Start }, "must be before end"},
		{"zero page size", func(c *Config) { c.PageSize = 0 }, "page_size"},
		{"missing output", func(c *Config) { c.Output = "" }, "output"},
		{"negative max fetches", func(c *Config) { c.MaxFetches = -1 }, "max_fetches"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "log level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fullConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
