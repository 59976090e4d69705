// Package config loads the sweep configuration from YAML or TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/pagesweep/internal/record"
)

// Defaults for the range and page size.
const (
	DefaultStart    = "2016-01-01T00:00:00Z"
	DefaultEnd      = "2017-12-31T23:59:59.9999999Z"
	DefaultPageSize = 100
	DefaultOutput   = "records.json"
	DefaultTimeout  = 30 * time.Second
)

// Config is the complete configuration of one sweep.
// It is built once at startup and passed explicitly to each component.
type Config struct {
	Source   SourceConfig  `yaml:"source" toml:"source"`
	Range    RangeConfig   `yaml:"range" toml:"range"`
	PageSize int           `yaml:"page_size" toml:"page_size"`
	Output   string        `yaml:"output" toml:"output"`
	Journal  string        `yaml:"journal" toml:"journal"` // empty disables the run journal
	Logging  LoggingConfig `yaml:"logging" toml:"logging"`

	// MaxFetches stops a run that needs more fetches. Zero means unlimited.
	MaxFetches int64 `yaml:"max_fetches" toml:"max_fetches"`
}

// SourceConfig describes the remote record source.
type SourceConfig struct {
	Endpoint  string        `yaml:"endpoint" toml:"endpoint"`
	Timeout   time.Duration `yaml:"timeout" toml:"timeout"`
	UserAgent string        `yaml:"user_agent" toml:"user_agent"`
}

// RangeConfig is the global time range of the sweep.
type RangeConfig struct {
	Start string `yaml:"start" toml:"start"`
	End   string `yaml:"end" toml:"end"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

// Default returns a Config with the built-in defaults. The endpoint has no
// default and must be supplied.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Timeout: DefaultTimeout,
		},
		Range: RangeConfig{
			Start: DefaultStart,
			End:   DefaultEnd,
		},
		PageSize: DefaultPageSize,
		Output:   DefaultOutput,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file over the defaults. The format is chosen
// by extension: .yaml/.yml or .toml. Unknown keys are rejected.
//
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = decodeYAML(data, cfg)
	case ".toml":
		err = decodeTOML(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q (use .yaml, .yml or .toml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Source.Endpoint == "" {
		return fmt.Errorf("source endpoint must be specified")
	}
	u, err := url.Parse(c.Source.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source endpoint must be an absolute http(s) URL: %q", c.Source.Endpoint)
	}
	if c.Source.Timeout < 0 {
		return fmt.Errorf("source timeout must not be negative")
	}

	start, err := record.ParseStamp(c.Range.Start)
	if err != nil {
		return fmt.Errorf("range start: %w", err)
	}
	end, err := record.ParseStamp(c.Range.End)
	if err != nil {
		return fmt.Errorf("range end: %w", err)
	}
	if !end.After(start) {
		return fmt.Errorf("range start %s must be before end %s", c.Range.Start, c.Range.End)
	}

	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive")
	}
	if c.Output == "" {
		return fmt.Errorf("output path must be specified")
	}
	if c.MaxFetches < 0 {
		return fmt.Errorf("max_fetches must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}
