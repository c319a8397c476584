// Package config loads and validates the daemon configuration. Invalid
// settings fail startup; nothing is silently clamped.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Timezone is the IANA zone every schedule computation and stored
	// timestamp comparison is anchored to.
	Timezone string `yaml:"timezone"`

	// DataPath is the SQLite database file.
	DataPath string `yaml:"data_path"`

	// ReminderHour/ReminderMinute give the wall-clock slot of the
	// day-before notification.
	ReminderHour   int `yaml:"reminder_hour"`
	ReminderMinute int `yaml:"reminder_minute"`

	// IntervalHours is the repeat cadence between notifications.
	IntervalHours float64 `yaml:"interval_hours"`

	// IgnoredTerms drops calendar entries whose title or description
	// contains any term (case-insensitive).
	IgnoredTerms []string `yaml:"ignored_terms"`

	// TickCron drives the clock loop (standard cron expression).
	TickCron string `yaml:"tick_cron"`

	// DispatchTimeoutSeconds bounds a single outbound notify call.
	DispatchTimeoutSeconds int `yaml:"dispatch_timeout_seconds"`

	// ExpiryGraceHours is how long past the event start an unacknowledged
	// reminder survives before it expires.
	ExpiryGraceHours float64 `yaml:"expiry_grace_hours"`

	// RetentionDays is how long expired reminders are kept before deletion.
	RetentionDays float64 `yaml:"retention_days"`

	// LogLevel is DEBUG, INFO or ERROR.
	LogLevel string `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		Timezone:               "Europe/Berlin",
		DataPath:               "data/binday.db",
		ReminderHour:           17,
		ReminderMinute:         0,
		IntervalHours:          2,
		IgnoredTerms:           []string{"Wertstoffhof geschlossen"},
		TickCron:               "* * * * *",
		DispatchTimeoutSeconds: 10,
		ExpiryGraceHours:       1,
		RetentionDays:          7,
		LogLevel:               "INFO",
	}
}

// Load reads YAML config from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			if verr := cfg.Validate(); verr != nil {
				return nil, verr
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate collects every violation so an operator fixes the file once.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Timezone) == "" {
		problems = append(problems, "timezone is required")
	} else if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("timezone %q is unknown", c.Timezone))
	}
	if strings.TrimSpace(c.DataPath) == "" {
		problems = append(problems, "data_path is required")
	}
	if c.ReminderHour < 0 || c.ReminderHour > 23 {
		problems = append(problems, fmt.Sprintf("reminder_hour %d outside 0-23", c.ReminderHour))
	}
	if c.ReminderMinute < 0 || c.ReminderMinute > 59 {
		problems = append(problems, fmt.Sprintf("reminder_minute %d outside 0-59", c.ReminderMinute))
	}
	if c.IntervalHours <= 0 {
		problems = append(problems, fmt.Sprintf("interval_hours %g must be positive", c.IntervalHours))
	}
	if _, err := cron.ParseStandard(c.TickCron); err != nil {
		problems = append(problems, fmt.Sprintf("tick_cron %q: %v", c.TickCron, err))
	}
	if c.DispatchTimeoutSeconds <= 0 {
		problems = append(problems, "dispatch_timeout_seconds must be positive")
	}
	if c.ExpiryGraceHours < 0 {
		problems = append(problems, "expiry_grace_hours must not be negative")
	}
	if c.RetentionDays < 0 {
		problems = append(problems, "retention_days must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location resolves the configured timezone. Call after Validate.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalHours * float64(time.Hour))
}

func (c *Config) DispatchTimeout() time.Duration {
	return time.Duration(c.DispatchTimeoutSeconds) * time.Second
}

func (c *Config) ExpiryGrace() time.Duration {
	return time.Duration(c.ExpiryGraceHours * float64(time.Hour))
}

func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays * 24 * float64(time.Hour))
}
