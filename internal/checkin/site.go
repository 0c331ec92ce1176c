// Package checkin holds the per-account steps run against the target site:
// login, the check-in action (browser triggers or API replay) and balance
// scraping.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrLoginTimeout    = errors.New("login timeout")
	ErrNoTrigger       = errors.New("no check-in trigger could be fired")
	ErrAPICheckinMiss  = errors.New("no check-in endpoint reported success")
	ErrTransport       = errors.New("transport error")
)

// Site describes the target site and how long to wait for it.
type Site struct {
	LoginURL     string
	LoginPath    string
	CheckinURL   string
	DashboardURL string

	Labels         []string
	AlreadyMarkers []string
	SuccessMarkers []string
	Endpoints      []string

	Timing Timing
}

type Timing struct {
	Settle         time.Duration
	CheckinSettle  time.Duration
	ConfirmSettle  time.Duration
	ElementTimeout time.Duration
	LoginTimeout   time.Duration
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

// settle waits d or until ctx is done.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func containsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// Classify maps page or response text to a terminal state. "Already"
// markers win over success markers since some sites show both.
func (s *Site) Classify(text string) State {
	switch {
	case containsAny(text, s.AlreadyMarkers):
		return AlreadyCheckedIn
	case containsAny(text, s.SuccessMarkers):
		return Succeeded
	default:
		return Unconfirmed
	}
}

// wrapLast joins a sentinel with the most recent underlying cause, if any.
func wrapLast(sentinel, last error) error {
	if last == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, last)
}
