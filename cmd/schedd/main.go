package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"
	flag "github.com/spf13/pflag"

	"schedd/internal/alarm"
	"schedd/internal/applog"
	"schedd/internal/config"
	"schedd/internal/storage"
	"schedd/internal/update"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "schedd failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		dbPath     string
		debug      bool
	)
	flag.StringVar(&configPath, "config", defaultConfigPath(), "path to the YAML config file")
	flag.StringVar(&dbPath, "db", "", "override the database file from the config")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DB = dbPath
	}

	if debug {
		applog.SetLevel(applog.LevelDebug)
	}
	if cfg.Log != "" {
		logFile, err := openLogFile(cfg.Log)
		if err != nil {
			return err
		}
		defer logFile.Close()
		applog.SetOutput(logFile)
	}

	kv, err := storage.OpenSQLite(cfg.DB)
	if err != nil {
		return err
	}
	defer kv.Close()
	store := storage.NewStore(kv)

	engine := alarm.NewEngine(16)
	engine.Start()
	defer engine.Stop()

	var notifier alarm.DesktopNotifier = alarm.NoopNotifier{}
	var player alarm.Player = alarm.NoopPlayer{}
	if cfg.Notify {
		notifier = alarm.ExecNotifier{}
	}
	if cfg.Sound != "" {
		player = &alarm.ExecPlayer{}
	}
	alarms := alarm.NewScheduler(engine, store, notifier)

	// Armed triggers are single absolute instants, so every task is
	// re-armed at launch and again on the configured cron.
	permissionDenied := false
	if err := alarms.RearmAll(context.Background(), time.Now()); err != nil {
		if errors.Is(err, alarm.ErrPermissionDenied) {
			permissionDenied = true
		} else {
			return err
		}
	}

	rearmer := cron.New()
	if _, err := rearmer.AddFunc(cfg.RearmCron, func() {
		if err := alarms.RearmAll(context.Background(), time.Now()); err != nil &&
			!errors.Is(err, alarm.ErrPermissionDenied) {
			applog.Error("scheduled re-arm failed", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid rearm_cron %q: %w", cfg.RearmCron, err)
	}
	rearmer.Start()
	defer rearmer.Stop()

	m := update.NewModel(store, alarms, engine, player, cfg)
	if permissionDenied {
		m.PermissionWarned = true
		m.Status = update.StatusBar{Text: "notifications unavailable, alarms will not ring", IsError: true}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	applog.Info("starting", "db", cfg.DB, "rearm_cron", cfg.RearmCron)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "schedd.yaml"
	}
	return filepath.Join(home, ".config", "schedd", "config.yaml")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
