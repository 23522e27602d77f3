// Package config handles configuration loading from YAML, CLI flags, and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default sample sizes for the rolling encounter-rate estimators. The larger
// benchmark buffer is for measuring a stable encounters/hr on a single route;
// the small one flushes out breaks (mode switches, manual play) quickly.
const (
	DefaultEncounterBufferSize   = 100
	BenchmarkEncounterBufferSize = 1000
)

// EncounterBenchmarkEnv enables the large sample buffer without editing the
// config file.
const EncounterBenchmarkEnv = "SHINYTRACK_ENCOUNTER_BENCHMARK"

// Config is the root configuration structure.
type Config struct {
	Profile ProfileConfig `yaml:"profile"`
	Logging LoggingConfig `yaml:"logging"`
	Stats   StatsConfig   `yaml:"stats"`
	API     APIConfig     `yaml:"api"`
}

// ProfileConfig locates the player profile whose statistics are tracked.
type ProfileConfig struct {
	Dir string `yaml:"dir"` // directory holding stats.db and legacy stats files
}

// LoggingConfig controls which encounters are persisted individually and how
// verbose the process log is.
type LoggingConfig struct {
	// LogEncounters persists every encounter to the log store. When false,
	// only encounters flagged "of interest" by the caller are persisted;
	// aggregates are maintained either way.
	LogEncounters bool   `yaml:"log_encounters"`
	Level         string `yaml:"level"` // debug, info, warn, error
}

// StatsConfig tunes the statistics engine.
type StatsConfig struct {
	// EncounterBufferSize is the capacity of the two rolling encounter-rate
	// ring buffers (wall-clock timestamps and game frames).
	EncounterBufferSize int `yaml:"encounter_buffer_size"`
}

// APIConfig configures the read-only HTTP API.
type APIConfig struct {
	Listen string `yaml:"listen"` // e.g. "localhost:8888"
	// HandoffTimeoutMs bounds how long a read request waits for the engine
	// loop before a stale cached value is served instead.
	HandoffTimeoutMs int `yaml:"handoff_timeout_ms"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			LogEncounters: false,
			Level:         "info",
		},
		Stats: StatsConfig{
			EncounterBufferSize: DefaultEncounterBufferSize,
		},
		API: APIConfig{
			Listen:           "localhost:8888",
			HandoffTimeoutMs: 500,
		},
	}
}

// Load reads the config file at path (or the defaults when path is empty)
// and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if os.Getenv(EncounterBenchmarkEnv) != "" {
		cfg.Stats.EncounterBufferSize = BenchmarkEncounterBufferSize
	}
	if cfg.Stats.EncounterBufferSize <= 0 {
		cfg.Stats.EncounterBufferSize = DefaultEncounterBufferSize
	}

	return cfg, nil
}

// DBPath returns the location of the profile's stats database.
func (c *Config) DBPath() string {
	return filepath.Join(c.Profile.Dir, "stats.db")
}

// LegacyStatsDir returns the directory that held the pre-database flat-file
// stats, used once during migration.
func (c *Config) LegacyStatsDir() string {
	return filepath.Join(c.Profile.Dir, "stats")
}
