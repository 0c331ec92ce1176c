package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// setupLogger builds the process logger: text on a terminal, JSON otherwise
// so CI log collectors get one object per line.
func setupLogger() *slog.Logger {
	return newLogger(os.Stderr, isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()), logLevel)
}

func newLogger(w io.Writer, tty bool, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if tty {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}
