package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/sznuper/checkin/internal/checkin"
	"github.com/sznuper/checkin/internal/config"
	"github.com/sznuper/checkin/internal/runner"
)

func sampleReport() runner.Report {
	return runner.Report{
		Results: []runner.AccountResult{
			{
				Identifier: "abc123@example.com",
				Succeeded:  true,
				State:      checkin.Succeeded,
				Strategy:   "direct",
				Message:    "check-in succeeded",
				Balance:    "8.00 元",
				Duration:   1500 * time.Millisecond,
			},
			{
				Identifier: "xyz789@example.com",
				State:      checkin.Failed,
				Message:    "login failed: login timeout",
				Balance:    checkin.UnknownBalance,
				ErrStage:   "login",
				Err:        checkin.ErrLoginTimeout,
			},
		},
		Notification: "summary",
		Notified:     []string{"telegram"},
		DryRun:       true,
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false, "debug").Debug("hello", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("non-tty output should be JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "hello" || rec["k"] != "v" {
		t.Errorf("record = %v", rec)
	}

	buf.Reset()
	newLogger(&buf, true, "warn").Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}

	buf.Reset()
	newLogger(&buf, true, "bogus").Info("kept")
	if !strings.Contains(buf.String(), "msg=kept") {
		t.Errorf("unknown level should fall back to info with text output, got %q", buf.String())
	}
}

func TestApplyOptionFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x", Run: func(*cobra.Command, []string) {}}
	registerOptionFlags(cmd)
	if err := cmd.ParseFlags([]string{"--mode", "api"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Accounts = "file@example.com:pw"
	applyOptionFlags(cmd, cfg)

	if cfg.Mode != config.ModeAPI {
		t.Errorf("mode = %q, want %q", cfg.Mode, config.ModeAPI)
	}
	if cfg.Accounts != "file@example.com:pw" {
		t.Errorf("accounts = %q, unset flag must not override", cfg.Accounts)
	}
}

func TestPrintReportMasks(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, sampleReport())
	out := buf.String()

	for _, want := range []string{"abc***@example.com", "xyz***@example.com", "8.00 元", "Error (login):", "Would notify:", "telegram"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "abc123") || strings.Contains(out, "xyz789") {
		t.Errorf("output leaks identifiers:\n%s", out)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}

	var got jsonReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(got.Results))
	}
	first, second := got.Results[0], got.Results[1]
	if first.Account != "abc***@example.com" || !first.Succeeded || first.Balance != "8.00 元" || first.DurationMS != 1500 {
		t.Errorf("first = %+v", first)
	}
	if second.State != "failed" || second.ErrStage != "login" {
		t.Errorf("second = %+v", second)
	}
	if !strings.Contains(buf.String(), "元") {
		t.Error("non-ASCII balance should be written verbatim")
	}
}

func newTestDaemon(t *testing.T, load func() (*config.Config, error)) *daemon {
	t.Helper()
	cfg := config.Default()
	d := &daemon{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		load:   load,
		job:    func(context.Context, *config.Config) {},
		cron:   cron.New(cron.WithParser(config.ScheduleParser)),
	}
	if err := d.schedule(context.Background(), cfg.Schedule); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDaemonReloadKeepsConfigOnError(t *testing.T) {
	d := newTestDaemon(t, func() (*config.Config, error) { return nil, errors.New("bad yaml") })
	before := d.cfg

	d.reload(context.Background())

	if d.cfg != before {
		t.Error("config replaced despite load error")
	}
}

func TestDaemonReloadReschedules(t *testing.T) {
	next := config.Default()
	next.Schedule = "30 6 * * *"
	d := newTestDaemon(t, func() (*config.Config, error) { return next, nil })
	oldEntry := d.entry

	d.reload(context.Background())

	if d.cfg != next {
		t.Error("config not swapped")
	}
	if d.entry == oldEntry {
		t.Error("entry not replaced after schedule change")
	}
	if entries := d.cron.Entries(); len(entries) != 1 {
		t.Errorf("entries = %d, want exactly one schedule", len(entries))
	}
}

func TestDaemonRejectsBadSchedule(t *testing.T) {
	d := newTestDaemon(t, nil)
	if err := d.schedule(context.Background(), "not a cron"); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestDaemonAcceptsDescriptor(t *testing.T) {
	d := newTestDaemon(t, nil)
	if err := d.schedule(context.Background(), "@daily"); err != nil {
		t.Fatalf("schedule accepted by validate must work in start: %v", err)
	}
}
