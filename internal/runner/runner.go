package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sznuper/checkin/internal/browser"
	"github.com/sznuper/checkin/internal/checkin"
	"github.com/sznuper/checkin/internal/config"
	"github.com/sznuper/checkin/internal/notify"
)

// Notifier delivers the consolidated run summary.
type Notifier interface {
	Notify(ctx context.Context, entries []notify.Entry) notify.Delivery
}

// Runner orchestrates the per-account pipeline and the final notification.
type Runner struct {
	pipeline *Pipeline
	notifier Notifier
	delay    time.Duration
	dryRun   bool
	logger   *slog.Logger
}

// New creates a Runner. opener supplies one browser per account.
func New(cfg *config.Config, opener Opener, notifier Notifier, dryRun bool, logger *slog.Logger) *Runner {
	return &Runner{
		pipeline: NewPipeline(SiteFromConfig(cfg), cfg.Mode, opener, logger),
		notifier: notifier,
		delay:    cfg.Timing.AccountDelay.Std(),
		dryRun:   dryRun,
		logger:   logger,
	}
}

// RunAll runs every account sequentially, waiting the configured delay
// between accounts, and then sends one notification. The report has exactly
// one result per credential, in order.
func (r *Runner) RunAll(ctx context.Context, creds []config.Credential) Report {
	report := Report{Results: make([]AccountResult, 0, len(creds)), DryRun: r.dryRun}

	for i, cred := range creds {
		if i > 0 && ctx.Err() == nil {
			r.logger.Debug("waiting before next account", "delay", r.delay)
			wait(ctx, r.delay)
		}

		var res AccountResult
		if err := ctx.Err(); err != nil {
			res = failed(AccountResult{Identifier: cred.Identifier}, "skipped", err)
		} else {
			res = r.pipeline.Run(ctx, cred)
		}

		r.logger.Info(fmt.Sprintf("%s | %t | %s | %s", notify.Mask(res.Identifier), res.Succeeded, res.Message, res.Balance))
		report.Results = append(report.Results, res)
	}

	if r.notifier != nil {
		// The summary still goes out after an interrupt.
		d := r.notifier.Notify(context.WithoutCancel(ctx), entries(report.Results))
		report.Notification = d.Message
		report.Notified = d.Notified
		report.NotifyErr = d.Err
		if d.Err != nil {
			r.logger.Warn("notification incomplete", "error", d.Err)
		}
	}

	return report
}

func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func entries(results []AccountResult) []notify.Entry {
	out := make([]notify.Entry, len(results))
	for i, res := range results {
		out[i] = notify.Entry{
			Identifier: res.Identifier,
			Succeeded:  res.Succeeded,
			Message:    res.Message,
			Balance:    res.Balance,
		}
	}
	return out
}

// SiteFromConfig maps the site, marker and timing settings onto the
// check-in steps.
func SiteFromConfig(cfg *config.Config) *checkin.Site {
	return &checkin.Site{
		LoginURL:       cfg.Site.LoginURL,
		LoginPath:      cfg.Site.LoginPath,
		CheckinURL:     cfg.Site.CheckinURL,
		DashboardURL:   cfg.Site.DashboardURL,
		Labels:         cfg.Checkin.Labels,
		AlreadyMarkers: cfg.Checkin.AlreadyMarkers,
		SuccessMarkers: cfg.Checkin.SuccessMarkers,
		Endpoints:      cfg.Checkin.Endpoints,
		Timing: checkin.Timing{
			Settle:         cfg.Timing.Settle.Std(),
			CheckinSettle:  cfg.Timing.CheckinSettle.Std(),
			ConfirmSettle:  cfg.Timing.ConfirmSettle.Std(),
			ElementTimeout: cfg.Timing.ElementTimeout.Std(),
			LoginTimeout:   cfg.Timing.LoginTimeout.Std(),
			RequestTimeout: cfg.Timing.RequestTimeout.Std(),
		},
	}
}

// NewNotifier builds the notifier for cfg's services.
func NewNotifier(cfg *config.Config, dryRun bool, logger *slog.Logger) *notify.Notifier {
	return &notify.Notifier{
		Title:    cfg.Notify.Title,
		Template: cfg.Notify.Template,
		Services: mapServiceDefs(cfg.Notify.Services),
		Timeout:  cfg.Timing.NotifyTimeout.Std(),
		DryRun:   dryRun,
		Logger:   logger,
	}
}

// NewLauncher builds the browser launcher for cfg.
func NewLauncher(cfg *config.Config, logger *slog.Logger) *browser.Launcher {
	return browser.NewLauncher(browser.Options{
		Headless:   cfg.Browser.Headless,
		CI:         cfg.Browser.CI,
		Bin:        cfg.Browser.Bin,
		WindowSize: cfg.Browser.WindowSize,
	}, logger)
}

func mapServiceDefs(services map[string]config.Service) map[string]notify.ServiceDef {
	defs := make(map[string]notify.ServiceDef, len(services))
	for name, svc := range services {
		defs[name] = notify.ServiceDef{
			URL:    svc.URL,
			Params: svc.Params,
		}
	}
	return defs
}
