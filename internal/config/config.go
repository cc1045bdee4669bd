// Package config loads and validates the human-editable config.json the
// daemon and CLI share, falling back to built-in defaults whenever a key
// is absent.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/lacodda/kasl/internal/kaslerr"
)

// Monitor holds the sampler and state-machine tuning knobs.
type Monitor struct {
	MinPauseDuration   int `json:"min_pause_duration"`   // minutes
	PauseThreshold     int `json:"pause_threshold"`       // seconds
	PollInterval       int `json:"poll_interval"`         // milliseconds
	ActivityThreshold  int `json:"activity_threshold"`    // seconds
	MinWorkInterval    int `json:"min_work_interval"`     // minutes
}

// Productivity holds the report aggregator's thresholds and adjust gates.
type Productivity struct {
	MinProductivityThreshold float64 `json:"min_productivity_threshold"` // percent
	MinBreakDuration         int     `json:"min_break_duration"`         // minutes
	MaxBreakDuration         int     `json:"max_break_duration"`         // minutes
}

// Config is the full contents of config.json.
type Config struct {
	Monitor      Monitor      `json:"monitor"`
	Productivity Productivity `json:"productivity"`
}

// Default returns the built-in configuration a fresh install starts with.
func Default() *Config {
	return &Config{
		Monitor: Monitor{
			MinPauseDuration:  20,
			PauseThreshold:    60,
			PollInterval:      500,
			ActivityThreshold: 30,
			MinWorkInterval:   10,
		},
		Productivity: Productivity{
			MinProductivityThreshold: 0,
			MinBreakDuration:         0,
			MaxBreakDuration:         0,
		},
	}
}

// Load reads path, merging onto defaults, and validates the result. A
// missing file is not an error: Default() is returned instead so the
// daemon's first run needs no prior setup step.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, kaslerr.New("config.Load", kaslerr.ConfigInvalid, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, kaslerr.New("config.Load", kaslerr.ConfigInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, kaslerr.New("config.Load", kaslerr.ConfigInvalid, err)
	}
	return cfg, nil
}

// Save writes cfg to path atomically (write-temp, fsync, rename) so a crash
// mid-write can never leave a truncated config.json behind.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return kaslerr.New("config.Save", kaslerr.ConfigInvalid, err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return kaslerr.New("config.Save", kaslerr.ConfigInvalid, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return kaslerr.New("config.Save", kaslerr.ConfigInvalid, err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return kaslerr.New("config.Save", kaslerr.ConfigInvalid, err)
	}
	return nil
}

// Validate enforces that every duration is non-negative and the
// productivity threshold and break bounds are sane.
func (c *Config) Validate() error {
	if c.Monitor.MinPauseDuration < 0 {
		return fmt.Errorf("monitor.min_pause_duration must be non-negative")
	}
	if c.Monitor.PauseThreshold < 0 {
		return fmt.Errorf("monitor.pause_threshold must be non-negative")
	}
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}
	if c.Monitor.ActivityThreshold < 0 {
		return fmt.Errorf("monitor.activity_threshold must be non-negative")
	}
	if c.Monitor.MinWorkInterval < 0 {
		return fmt.Errorf("monitor.min_work_interval must be non-negative")
	}
	if c.Productivity.MinProductivityThreshold < 0 || c.Productivity.MinProductivityThreshold > 100 {
		return fmt.Errorf("productivity.min_productivity_threshold must be within [0,100]")
	}
	if c.Productivity.MinBreakDuration < 0 || c.Productivity.MaxBreakDuration < 0 {
		return fmt.Errorf("productivity break bounds must be non-negative")
	}
	if c.Productivity.MaxBreakDuration > 0 && c.Productivity.MinBreakDuration > c.Productivity.MaxBreakDuration {
		return fmt.Errorf("productivity.min_break_duration must not exceed max_break_duration")
	}
	return nil
}
