package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/sznuper/checkin/internal/config"
)

const reloadDebounce = 750 * time.Millisecond

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the check-in on the configured schedule",
	Long:  "Starts a long-running process that runs every account on the cron schedule from the config and reloads the config file when it changes.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Schedule == "" {
			return fmt.Errorf("schedule is empty; set it in the config or use `checkin run`")
		}
		path, err := config.Path(cfgFile)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d := &daemon{
			cfg:    cfg,
			logger: logger,
			load:   func() (*config.Config, error) { return loadConfig(cmd) },
			job: func(ctx context.Context, cfg *config.Config) {
				report, err := runOnce(ctx, cfg, false, logger)
				if err != nil {
					logger.Error("scheduled run failed", "error", err)
					return
				}
				logger.Info("scheduled run finished", "accounts", len(report.Results), "failed", report.Failed())
			},
		}
		return d.run(ctx, path)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}

// daemon owns the cron schedule and swaps in a new config when the file
// changes. An invalid edit keeps the previous config.
type daemon struct {
	logger *slog.Logger
	load   func() (*config.Config, error)
	job    func(ctx context.Context, cfg *config.Config)

	mu    sync.Mutex
	cfg   *config.Config
	cron  *cron.Cron
	entry cron.EntryID
	timer *time.Timer
}

func (d *daemon) run(ctx context.Context, path string) error {
	cronLog := cron.PrintfLogger(slog.NewLogLogger(d.logger.Handler(), slog.LevelDebug))
	d.cron = cron.New(
		cron.WithParser(config.ScheduleParser),
		cron.WithChain(cron.SkipIfStillRunning(cronLog)),
		cron.WithLogger(cronLog),
	)

	if err := d.schedule(ctx, d.cfg.Schedule); err != nil {
		return err
	}
	d.cron.Start()
	next, _ := config.NextRun(d.cfg.Schedule, time.Now())
	d.logger.Info("scheduler started", "schedule", d.cfg.Schedule, "next", next)

	if path != "" {
		w, err := d.watch(ctx, path)
		if err != nil {
			d.logger.Warn("config reload disabled", "error", err)
		} else {
			defer w.Close()
		}
	}

	<-ctx.Done()
	d.logger.Info("stopping scheduler")

	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	<-d.cron.Stop().Done()
	return nil
}

// schedule replaces the current cron entry. Caller must not hold d.mu.
func (d *daemon) schedule(ctx context.Context, spec string) error {
	id, err := d.cron.AddFunc(spec, func() {
		d.mu.Lock()
		cfg := d.cfg
		d.mu.Unlock()
		d.job(ctx, cfg)
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	d.mu.Lock()
	old := d.entry
	d.entry = id
	d.mu.Unlock()

	if old != 0 {
		d.cron.Remove(old)
	}
	return nil
}

// watch follows the config file's directory so editors that replace the file
// via rename are still seen.
func (d *daemon) watch(ctx context.Context, path string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.Clean(abs)

	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				d.scheduleReload(ctx)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				d.logger.Warn("config watcher error", "error", err)
			}
		}
	}()

	return w, nil
}

func (d *daemon) scheduleReload(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(reloadDebounce, func() {
		if ctx.Err() == nil {
			d.reload(ctx)
		}
	})
}

func (d *daemon) reload(ctx context.Context) {
	cfg, err := d.load()
	if err != nil {
		d.logger.Error("config reload failed, keeping previous config", "error", err)
		return
	}

	d.mu.Lock()
	prev := d.cfg.Schedule
	d.cfg = cfg
	d.mu.Unlock()

	if cfg.Schedule != prev && cfg.Schedule != "" {
		if err := d.schedule(ctx, cfg.Schedule); err != nil {
			d.logger.Error("reschedule failed", "error", err)
			return
		}
	}
	d.logger.Info("config reloaded", "schedule", cfg.Schedule)
}
