package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ReminderHour != 17 || cfg.TickCron != "* * * * *" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := `
timezone: UTC
reminder_hour: 8
interval_hours: 1.5
ignored_terms:
  - depot closed
`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timezone != "UTC" || cfg.ReminderHour != 8 {
		t.Fatalf("overrides not applied: %#v", cfg)
	}
	if cfg.Interval() != 90*time.Minute {
		t.Fatalf("interval = %s, want 90m", cfg.Interval())
	}
	if len(cfg.IgnoredTerms) != 1 || cfg.IgnoredTerms[0] != "depot closed" {
		t.Fatalf("ignored terms = %v", cfg.IgnoredTerms)
	}
	// Untouched keys keep their defaults.
	if cfg.DataPath != "data/binday.db" || cfg.DispatchTimeoutSeconds != 10 {
		t.Fatalf("defaults lost: %#v", cfg)
	}
}

func TestValidateRejectsEachBadField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty timezone", func(c *Config) { c.Timezone = "" }, "timezone"},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"empty data path", func(c *Config) { c.DataPath = " " }, "data_path"},
		{"hour low", func(c *Config) { c.ReminderHour = -1 }, "reminder_hour"},
		{"hour high", func(c *Config) { c.ReminderHour = 24 }, "reminder_hour"},
		{"minute high", func(c *Config) { c.ReminderMinute = 60 }, "reminder_minute"},
		{"zero interval", func(c *Config) { c.IntervalHours = 0 }, "interval_hours"},
		{"negative interval", func(c *Config) { c.IntervalHours = -2 }, "interval_hours"},
		{"bad cron", func(c *Config) { c.TickCron = "not cron" }, "tick_cron"},
		{"zero dispatch timeout", func(c *Config) { c.DispatchTimeoutSeconds = 0 }, "dispatch_timeout"},
		{"negative grace", func(c *Config) { c.ExpiryGraceHours = -1 }, "expiry_grace"},
		{"negative retention", func(c *Config) { c.RetentionDays = -1 }, "retention"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateAggregatesProblems(t *testing.T) {
	cfg := Default()
	cfg.ReminderHour = 99
	cfg.IntervalHours = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "reminder_hour") || !strings.Contains(msg, "interval_hours") {
		t.Fatalf("expected both violations reported, got %q", msg)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("reminder_hour: 99\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation failure")
	}
}
