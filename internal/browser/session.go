package browser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Session is one live browser owned by a single account pipeline. Close
// must be called on every exit path.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// Element waits up to timeout for a visible element matching the CSS selector.
	Element(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// ElementByText waits up to timeout for an element matching selector whose
	// text matches the JavaScript regex pattern.
	ElementByText(ctx context.Context, selector, pattern string, timeout time.Duration) (Element, error)
	ClickAt(ctx context.Context, x, y float64) error
	URL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	// Eval runs a JS function expression and returns its result as a string.
	Eval(ctx context.Context, js string) (string, error)
	Cookies(ctx context.Context) ([]*http.Cookie, error)
	Close() error
}

type Element interface {
	Text() (string, error)
	Click() error
	// Fill clears the field and types text into it.
	Fill(text string) error
}

// RodSession is the go-rod implementation of Session.
type RodSession struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
}

func (s *RodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for %s to load: %w", url, err)
	}
	return nil
}

func (s *RodSession) Element(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	p := s.page.Context(ctx).Timeout(timeout)
	el, err := p.Element(selector)
	if err != nil {
		return nil, err
	}
	if err := el.WaitVisible(); err != nil {
		return nil, err
	}
	return &rodElement{el: el.CancelTimeout()}, nil
}

func (s *RodSession) ElementByText(ctx context.Context, selector, pattern string, timeout time.Duration) (Element, error) {
	p := s.page.Context(ctx).Timeout(timeout)
	el, err := p.ElementR(selector, pattern)
	if err != nil {
		return nil, err
	}
	if err := el.WaitVisible(); err != nil {
		return nil, err
	}
	return &rodElement{el: el.CancelTimeout()}, nil
}

func (s *RodSession) ClickAt(ctx context.Context, x, y float64) error {
	mouse := s.page.Context(ctx).Mouse
	if err := mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return err
	}
	return mouse.Click(proto.InputMouseButtonLeft, 1)
}

func (s *RodSession) URL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (s *RodSession) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

func (s *RodSession) Eval(ctx context.Context, js string) (string, error) {
	res, err := s.page.Context(ctx).Eval(js)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// Cookies returns every cookie the browser holds, not only those for the
// current page, so API calls to sibling subdomains stay authenticated.
func (s *RodSession) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	raw, err := s.browser.Context(ctx).GetCookies()
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}
	return convertCookies(raw), nil
}

// Close shuts the browser down and removes its profile directory. A browser
// that refuses a graceful close is killed.
func (s *RodSession) Close() error {
	err := s.browser.Close()
	if err != nil && s.launcher != nil {
		s.launcher.Kill()
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	if err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}
	return nil
}

func convertCookies(raw []*proto.NetworkCookie) []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return cookies
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) { return e.el.Text() }

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Fill(text string) error {
	if err := e.el.SelectAllText(); err != nil {
		return fmt.Errorf("clearing field: %w", err)
	}
	return e.el.Input(text)
}
