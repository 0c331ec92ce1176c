package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// Target holds a fully resolved notification target ready to send.
type Target struct {
	ServiceName string
	URL         string
	Message     string
	Params      map[string]string
}

// ServiceDef is a configured notification service.
type ServiceDef struct {
	URL    string
	Params map[string]string
}

// ResolveTargets pairs the rendered message with every service, in service
// name order.
func ResolveTargets(services map[string]ServiceDef, message string) []Target {
	targets := make([]Target, 0, len(services))
	for _, name := range slices.Sorted(maps.Keys(services)) {
		svc := services[name]
		targets = append(targets, Target{
			ServiceName: name,
			URL:         svc.URL,
			Message:     message,
			Params:      maps.Clone(svc.Params),
		})
	}
	return targets
}

// applyParams merges params into the URL query. Some services (telegram's
// chats) must see them when the sender is created, not only at send time.
func applyParams(rawURL string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing service url: %w", err)
	}

	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Validate checks that a sender can be built for t without sending.
func Validate(t Target) error {
	rawURL, err := applyParams(t.URL, t.Params)
	if err != nil {
		return fmt.Errorf("%s: %w", t.ServiceName, err)
	}
	if _, err := shoutrrr.CreateSender(rawURL); err != nil {
		return fmt.Errorf("creating sender for %s: %w", t.ServiceName, err)
	}
	return nil
}

// Send delivers a notification to a single target via Shoutrrr, giving up
// after timeout. A timed-out delivery may still complete in the background.
func Send(ctx context.Context, t Target, timeout time.Duration) error {
	rawURL, err := applyParams(t.URL, t.Params)
	if err != nil {
		return fmt.Errorf("%s: %w", t.ServiceName, err)
	}

	sender, err := shoutrrr.CreateSender(rawURL)
	if err != nil {
		return fmt.Errorf("creating sender for %s: %w", t.ServiceName, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		params := types.Params(maps.Clone(t.Params))
		if params == nil {
			params = types.Params{}
		}
		for _, e := range sender.Send(t.Message, &params) {
			if e != nil {
				done <- e
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("sending to %s: %w", t.ServiceName, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sending to %s: %w", t.ServiceName, ctx.Err())
	}
}

// Delivery reports what a Notify call did.
type Delivery struct {
	Message  string
	Notified []string // services sent to (or validated, in dry-run)
	Err      error
}

// Notifier renders the run summary and sends it to every configured
// service. With no services it does nothing.
type Notifier struct {
	Title    string
	Template string
	Services map[string]ServiceDef
	Timeout  time.Duration
	DryRun   bool
	Logger   *slog.Logger
}

// Notify renders entries and delivers them. Failures are collected in
// Delivery.Err and logged; they are never retried.
func (n *Notifier) Notify(ctx context.Context, entries []Entry) Delivery {
	log := n.Logger
	if log == nil {
		log = slog.Default()
	}

	msg, err := Render(n.Template, BuildTemplateData(n.Title, entries))
	if err != nil {
		log.Error("template failed", "error", err)
		return Delivery{Err: err}
	}
	d := Delivery{Message: msg}

	if len(n.Services) == 0 {
		log.Debug("no notification services configured")
		return d
	}

	var errs []error
	for _, t := range ResolveTargets(n.Services, msg) {
		if n.DryRun {
			if err := Validate(t); err != nil {
				log.Error("notify validation failed (dry-run)", "service", t.ServiceName, "error", err)
				errs = append(errs, err)
				continue
			}
			d.Notified = append(d.Notified, t.ServiceName)
			log.Debug("would notify (dry-run)", "service", t.ServiceName)
			continue
		}

		log.Info("sending notification", "service", t.ServiceName)
		if err := Send(ctx, t, n.Timeout); err != nil {
			log.Error("notify failed", "service", t.ServiceName, "error", err)
			errs = append(errs, err)
			continue
		}
		d.Notified = append(d.Notified, t.ServiceName)
		log.Debug("notification sent", "service", t.ServiceName)
	}
	d.Err = errors.Join(errs...)

	return d
}
