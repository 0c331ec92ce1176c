package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sznuper/checkin/internal/browser"
)

var identifierSelectors = []string{
	"input[type='email']",
	"input[type='text']",
	"input[name='email']",
	"input[name='username']",
}

const (
	passwordSelector = "input[type='password']"
	submitSelector   = "button[type='submit']"
	loginLabel       = "/登录|login|sign in/i"
)

// Login drives sess from the login page to an authenticated state.
func (s *Site) Login(ctx context.Context, log *slog.Logger, sess browser.Session, identifier, secret string) error {
	if err := sess.Navigate(ctx, s.LoginURL); err != nil {
		return err
	}
	if err := settle(ctx, s.Timing.Settle); err != nil {
		return err
	}

	s.dismissPopup(ctx, log, sess)

	idField, err := s.firstElement(ctx, sess, identifierSelectors)
	if err != nil {
		return fmt.Errorf("%w: identifier field", ErrElementNotFound)
	}
	if err := idField.Fill(identifier); err != nil {
		return fmt.Errorf("filling identifier: %w", err)
	}

	pwField, err := sess.Element(ctx, passwordSelector, s.Timing.ElementTimeout)
	if err != nil {
		return fmt.Errorf("%w: password field", ErrElementNotFound)
	}
	if err := pwField.Fill(secret); err != nil {
		return fmt.Errorf("filling password: %w", err)
	}

	submit, err := s.submitControl(ctx, sess)
	if err != nil {
		return fmt.Errorf("%w: login button", ErrElementNotFound)
	}
	if err := submit.Click(); err != nil {
		return fmt.Errorf("clicking login button: %w", err)
	}
	log.Debug("login submitted")

	return s.waitLeaveLogin(ctx, sess)
}

// dismissPopup clicks a blank corner to close welcome overlays. Failure is
// not fatal.
func (s *Site) dismissPopup(ctx context.Context, log *slog.Logger, sess browser.Session) {
	if err := sess.ClickAt(ctx, 10, 10); err != nil {
		log.Warn("popup dismissal failed", "error", err)
	}
}

func (s *Site) firstElement(ctx context.Context, sess browser.Session, selectors []string) (browser.Element, error) {
	var lastErr error
	for _, sel := range selectors {
		el, err := sess.Element(ctx, sel, s.Timing.ElementTimeout)
		if err == nil {
			return el, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (s *Site) submitControl(ctx context.Context, sess browser.Session) (browser.Element, error) {
	if el, err := sess.Element(ctx, submitSelector, s.Timing.ElementTimeout); err == nil {
		return el, nil
	}
	return sess.ElementByText(ctx, "button", loginLabel, s.Timing.ElementTimeout)
}

// waitLeaveLogin polls the current URL until it no longer contains the login
// path, bounded by the login timeout.
func (s *Site) waitLeaveLogin(ctx context.Context, sess browser.Session) error {
	poll := s.Timing.PollInterval
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	deadline := time.Now().Add(s.Timing.LoginTimeout)

	var current string
	for {
		u, err := sess.URL(ctx)
		if err == nil {
			current = u
			if !strings.Contains(u, s.LoginPath) {
				return nil
			}
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: still on %s after %s", ErrLoginTimeout, current, s.Timing.LoginTimeout)
		}
		if err := settle(ctx, poll); err != nil {
			return err
		}
	}
}
