package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// Options configures each launched browser.
type Options struct {
	Headless   bool
	CI         bool
	Bin        string
	WindowSize string
}

// Launcher starts one fresh browser per Open call.
type Launcher struct {
	opts   Options
	logger *slog.Logger
}

func NewLauncher(opts Options, logger *slog.Logger) *Launcher {
	return &Launcher{opts: opts, logger: logger}
}

// Open launches a browser and returns a session on a stealth page (masks
// navigator.webdriver and the other common automation tells).
func (l *Launcher) Open(ctx context.Context) (Session, error) {
	ln := l.command().Context(ctx)

	controlURL, err := ln.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	l.logger.Debug("browser launched", "control_url", controlURL, "headless", l.opts.Headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		ln.Kill()
		ln.Cleanup()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		ln.Cleanup()
		return nil, fmt.Errorf("opening stealth page: %w", err)
	}

	return &RodSession{browser: b, page: page, launcher: ln}, nil
}

func (l *Launcher) command() *launcher.Launcher {
	ln := launcher.New().
		Headless(l.opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Delete("enable-automation")

	if l.opts.CI {
		ln = ln.NoSandbox(true).
			Set("disable-dev-shm-usage").
			Set("disable-gpu")
	}
	if l.opts.WindowSize != "" {
		ln = ln.Set("window-size", l.opts.WindowSize)
	}

	switch {
	case l.opts.Bin != "":
		ln = ln.Bin(l.opts.Bin)
	default:
		if path, ok := launcher.LookPath(); ok {
			ln = ln.Bin(path)
		}
	}

	return ln
}
