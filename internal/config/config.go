// Package config provides configuration loading for mailtriage.
//
// Configuration is read from a YAML file and overridden by MAILTRIAGE_*
// environment variables, with hardcoded defaults underneath.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fyrsmithlabs/mailtriage/internal/logging"
	"github.com/fyrsmithlabs/mailtriage/internal/oracle"
)

// Config holds the complete mailtriage configuration.
type Config struct {
	Logging   logging.Config      `koanf:"logging"`
	Model     oracle.ClientConfig `koanf:"model"`
	Calendar  CalendarConfig      `koanf:"calendar"`
	Paths     PathsConfig         `koanf:"paths"`
	Run       RunConfig           `koanf:"run"`
	Guardrail GuardrailConfig     `koanf:"guardrail"`
	Scheduler SchedulerConfig     `koanf:"scheduler"`
}

// CalendarConfig selects and locates the calendar store backend.
type CalendarConfig struct {
	// Backend is "file" (JSON working copy) or "sqlite".
	Backend string `koanf:"backend"`
	// SQLitePath is the database path for the sqlite backend. Defaults to
	// <output_dir>/calendar.db.
	SQLitePath string `koanf:"sqlite_path"`
}

// PathsConfig locates run inputs and outputs.
type PathsConfig struct {
	DataDir   string `koanf:"data_dir"`
	OutputDir string `koanf:"output_dir"`
}

// RunConfig holds per-run settings.
type RunConfig struct {
	// Today pins the scheduling date, YYYY-MM-DD. Empty means the wall clock.
	Today string `koanf:"today"`
}

// GuardrailConfig overrides the sensitive-term list.
type GuardrailConfig struct {
	SensitiveTerms []string `koanf:"sensitive_terms"`
}

// SchedulerConfig bounds the meeting decision loop.
type SchedulerConfig struct {
	MaxToolRounds int `koanf:"max_tool_rounds"`
}

// Input/output file locations derived from the configured directories.

func (c *Config) EmailsPath() string           { return filepath.Join(c.Paths.DataDir, "emails.json") }
func (c *Config) BaselineCalendarPath() string { return filepath.Join(c.Paths.DataDir, "calendar.json") }
func (c *Config) WorkingCalendarPath() string  { return filepath.Join(c.Paths.OutputDir, "calendar.json") }
func (c *Config) ResultsPath() string          { return filepath.Join(c.Paths.OutputDir, "results.json") }
func (c *Config) FinalCalendarPath() string {
	return filepath.Join(c.Paths.OutputDir, "calendar_final.json")
}

// applyDefaults fills in missing values.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Fields == nil {
		cfg.Logging.Fields = map[string]string{"service": "mailtriage"}
	}
	if cfg.Calendar.Backend == "" {
		cfg.Calendar.Backend = "file"
	}
	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = "data"
	}
	if cfg.Paths.OutputDir == "" {
		cfg.Paths.OutputDir = "output"
	}
	if cfg.Calendar.SQLitePath == "" {
		cfg.Calendar.SQLitePath = filepath.Join(cfg.Paths.OutputDir, "calendar.db")
	}
	if cfg.Scheduler.MaxToolRounds == 0 {
		cfg.Scheduler.MaxToolRounds = 8
	}
	if cfg.Run.Today == "" {
		cfg.Run.Today = time.Now().Format("2006-01-02")
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Calendar.Backend != "file" && c.Calendar.Backend != "sqlite" {
		return fmt.Errorf("calendar backend must be 'file' or 'sqlite', got %q", c.Calendar.Backend)
	}
	if c.Scheduler.MaxToolRounds < 1 {
		return fmt.Errorf("scheduler max_tool_rounds must be >= 1, got %d", c.Scheduler.MaxToolRounds)
	}
	return nil
}
