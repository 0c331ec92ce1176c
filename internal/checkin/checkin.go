package checkin

import (
	"context"
	"log/slog"

	"github.com/sznuper/checkin/internal/browser"
)

type State int

const (
	NotAttempted State = iota
	Attempting
	AlreadyCheckedIn
	Succeeded
	Unconfirmed
	Failed
)

func (s State) String() string {
	switch s {
	case NotAttempted:
		return "not_attempted"
	case Attempting:
		return "attempting"
	case AlreadyCheckedIn:
		return "already_checked_in"
	case Succeeded:
		return "succeeded"
	case Unconfirmed:
		return "unconfirmed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// OK reports whether the state counts as a successful run for the account.
// Unconfirmed does: the action fired, only its effect was not visible.
func (s State) OK() bool {
	return s == AlreadyCheckedIn || s == Succeeded || s == Unconfirmed
}

// Outcome is the terminal result of a check-in attempt.
type Outcome struct {
	State    State
	Strategy string
	Message  string
	Err      error
}

func (o Outcome) Text() string {
	switch o.State {
	case AlreadyCheckedIn:
		return "already checked in today"
	case Succeeded:
		return "check-in succeeded"
	case Unconfirmed:
		return "check-in attempted, result unconfirmed"
	}
	if o.Err != nil {
		return "check-in failed: " + o.Err.Error()
	}
	return "check-in failed"
}

func outcome(state State, strategy string, err error) Outcome {
	o := Outcome{State: state, Strategy: strategy, Err: err}
	o.Message = o.Text()
	return o
}

// Checkin opens the check-in page and runs the trigger strategies.
func (s *Site) Checkin(ctx context.Context, log *slog.Logger, sess browser.Session) Outcome {
	if err := sess.Navigate(ctx, s.CheckinURL); err != nil {
		return outcome(Failed, "", err)
	}
	if err := settle(ctx, s.Timing.CheckinSettle); err != nil {
		return outcome(Failed, "", err)
	}
	return s.RunTriggers(ctx, log, sess, s.Triggers())
}

// RunTriggers tries each strategy in order and stops at the first one that
// fires or reports the action as already done.
func (s *Site) RunTriggers(ctx context.Context, log *slog.Logger, sess browser.Session, triggers []Trigger) Outcome {
	var lastErr error
	for _, t := range triggers {
		if err := ctx.Err(); err != nil {
			return outcome(Failed, "", err)
		}

		res := t.Fire(ctx, sess)
		switch res.Kind {
		case TriggerAlreadyDone:
			log.Info("already checked in", "strategy", t.Name, "text", res.Detail)
			return outcome(AlreadyCheckedIn, t.Name, nil)
		case TriggerFired:
			log.Info("check-in triggered", "strategy", t.Name, "text", res.Detail)
			return s.confirm(ctx, log, sess, t.Name)
		default:
			log.Debug("trigger missed", "strategy", t.Name, "error", res.Err)
			if res.Err != nil {
				lastErr = res.Err
			}
		}
	}
	return outcome(Failed, "", wrapLast(ErrNoTrigger, lastErr))
}

// confirm re-reads the page after the settle delay. An unreadable page is
// Unconfirmed, never Failed: the trigger already fired.
func (s *Site) confirm(ctx context.Context, log *slog.Logger, sess browser.Session, strategy string) Outcome {
	if err := settle(ctx, s.Timing.ConfirmSettle); err != nil {
		return outcome(Unconfirmed, strategy, err)
	}

	html, err := sess.HTML(ctx)
	if err != nil {
		log.Warn("reading page after check-in failed", "error", err)
		return outcome(Unconfirmed, strategy, err)
	}

	return outcome(s.Classify(PageText(html)), strategy, nil)
}
