// Package config loads and validates the YAML configuration that drives a
// running janus instance: sparse index density, buffer flush thresholds,
// storage paths, admission control, flush notification, and logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of a janus storage engine instance.
type Config struct {
	SegmentBasePath string `yaml:"segment_base_path"`
	DictionaryPath  string `yaml:"dictionary_path"`

	SparseInterval       int `yaml:"sparse_interval"`
	EntriesPerIndexBlock int `yaml:"entries_per_index_block"`

	MaxBufferEvents     int   `yaml:"max_buffer_events"`
	MaxBufferBytes      int64 `yaml:"max_buffer_bytes"`
	MaxBufferAgeSeconds int64 `yaml:"max_buffer_age_seconds"`
	MaxBufferEventsHard int   `yaml:"max_buffer_events_hard"`

	NotifyRedisAddr string `yaml:"notify_redis_addr"`
	NotifyChannel   string `yaml:"notify_channel"`

	LogDir   string `yaml:"log_dir"`
	LogLevel string `yaml:"log_level"`

	StatsSnapshotPath string `yaml:"stats_snapshot_path"`

	path string
}

// ValidationError collects every configuration problem found at once,
// rather than failing on the first.
type ValidationError struct {
	Path   string
	Errors []string
}

func (e *ValidationError) Error() string {
	b := strings.Builder{}
	b.WriteString("config: validation failed")
	if e.Path != "" {
		b.WriteString(" (")
		b.WriteString(e.Path)
		b.WriteString(")")
	}
	for _, err := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err)
	}
	return b.String()
}

// Load reads and validates a YAML config file, applying defaults for any
// field the file leaves zero-valued.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: path is empty")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve path: %w", err)
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", absPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
	}
	cfg.path = absPath

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in sensible defaults for any field left zero-valued.
func (c *Config) ApplyDefaults() {
	if c.SegmentBasePath == "" {
		c.SegmentBasePath = "data/segments"
	}
	if c.DictionaryPath == "" {
		c.DictionaryPath = "data/dictionary.bin"
	}
	if c.SparseInterval <= 0 {
		c.SparseInterval = 1000
	}
	if c.EntriesPerIndexBlock <= 0 {
		c.EntriesPerIndexBlock = 1024
	}
	if c.MaxBufferEvents <= 0 {
		c.MaxBufferEvents = 100_000
	}
	if c.MaxBufferBytes <= 0 {
		c.MaxBufferBytes = 10 << 20
	}
	if c.MaxBufferAgeSeconds <= 0 {
		c.MaxBufferAgeSeconds = 60
	}
	if c.NotifyRedisAddr != "" && c.NotifyChannel == "" {
		c.NotifyChannel = "janus.segments"
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.StatsSnapshotPath == "" {
		c.StatsSnapshotPath = filepath.Join(filepath.Dir(c.SegmentBasePath), "stats.json")
	}
	// MaxBufferEventsHard and NotifyRedisAddr are left at their zero values
	// by design: 0 disables admission control, and an empty notify address
	// disables flush notification entirely (NotifyChannel then stays empty
	// too; it is only defaulted when an address is set).
}

// Validate rejects a config that ApplyDefaults could not make sensible.
func (c *Config) Validate() error {
	var errs []string

	if c.SegmentBasePath == "" {
		errs = append(errs, "segment_base_path is required")
	}
	if c.DictionaryPath == "" {
		errs = append(errs, "dictionary_path is required")
	}
	if c.SparseInterval <= 0 {
		errs = append(errs, "sparse_interval must be > 0")
	}
	if c.EntriesPerIndexBlock <= 0 {
		errs = append(errs, "entries_per_index_block must be > 0")
	}
	if c.MaxBufferEvents <= 0 {
		errs = append(errs, "max_buffer_events must be > 0")
	}
	if c.MaxBufferBytes <= 0 {
		errs = append(errs, "max_buffer_bytes must be > 0")
	}
	if c.MaxBufferAgeSeconds <= 0 {
		errs = append(errs, "max_buffer_age_seconds must be > 0")
	}
	if c.MaxBufferEventsHard < 0 {
		errs = append(errs, "max_buffer_events_hard must be >= 0")
	}
	if c.MaxBufferEventsHard > 0 && c.MaxBufferEventsHard < c.MaxBufferEvents {
		errs = append(errs, "max_buffer_events_hard must be >= max_buffer_events when set")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}

	if len(errs) > 0 {
		return &ValidationError{Path: c.path, Errors: errs}
	}
	return nil
}
