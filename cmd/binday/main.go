package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"binday/internal/clock"
	"binday/internal/config"
	"binday/internal/engine"
	applog "binday/internal/log"
	"binday/internal/notify"
	"binday/internal/schedule"
	"binday/internal/storage"
)

func main() {
	configPath := flag.String("config", "binday.yaml", "path to config file")
	dataPath := flag.String("data", "", "SQLite database file (overrides config)")
	flag.Parse()

	if err := run(*configPath, *dataPath); err != nil {
		fmt.Fprintf(os.Stderr, "binday failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dataPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}
	applog.SetLevel(cfg.LogLevel)

	zone, err := cfg.Location()
	if err != nil {
		return err
	}
	plan, err := schedule.NewPlan(cfg.ReminderHour, cfg.ReminderMinute, cfg.Interval(), zone)
	if err != nil {
		return err
	}

	applog.Info("binday starting",
		"timezone", cfg.Timezone,
		"data_path", cfg.DataPath,
		"reminder_slot", fmt.Sprintf("%02d:%02d", cfg.ReminderHour, cfg.ReminderMinute),
		"interval", cfg.Interval(),
		"tick_cron", cfg.TickCron,
		"ignored_terms", len(cfg.IgnoredTerms),
	)

	// Reload persisted reminders before the first tick; stored schedules
	// are trusted as-is.
	store, err := storage.OpenSQLite(cfg.DataPath)
	if err != nil {
		return err
	}
	defer store.Close()

	eng, err := engine.New(store, notify.LogDispatcher{}, engine.Options{
		Plan:            plan,
		IgnoreTerms:     cfg.IgnoredTerms,
		DispatchTimeout: cfg.DispatchTimeout(),
		ExpiryGrace:     cfg.ExpiryGrace(),
		Retention:       cfg.Retention(),
	})
	if err != nil {
		return err
	}

	tickTimeout := 10 * cfg.DispatchTimeout()
	clk, err := clock.New(eng, cfg.TickCron, zone, tickTimeout)
	if err != nil {
		return err
	}
	clk.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	applog.Info("signal received, shutting down", "signal", sig.String())

	clk.Stop()
	time.Sleep(50 * time.Millisecond)
	applog.Info("binday exiting")
	return nil
}
