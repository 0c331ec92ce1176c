// Package browsertest provides an in-memory browser.Session for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sznuper/checkin/internal/browser"
)

// ErrTimeout is returned for selectors that have no element registered.
var ErrTimeout = errors.New("browsertest: element wait timed out")

// Session is a scripted browser. Pages maps URL → HTML returned by HTML()
// while that URL is current. Elements and TextElements map selectors to
// elements; unknown selectors fail immediately with ErrTimeout.
type Session struct {
	CurrentURL   string
	Pages        map[string]string
	Elements     map[string]*Element
	TextElements map[string]*Element
	Cookie       []*http.Cookie

	NavigateErr map[string]error
	ClickAtErr  error
	HTMLErr     error
	HTMLFunc    func(url string) (string, error)
	EvalFunc    func(js string) (string, error)

	Navigated []string
	Evals     []string
	Closed    int
}

var _ browser.Session = (*Session)(nil)

func New() *Session {
	return &Session{
		Pages:        map[string]string{},
		Elements:     map[string]*Element{},
		TextElements: map[string]*Element{},
		NavigateErr:  map[string]error{},
	}
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Navigated = append(s.Navigated, url)
	if err := s.NavigateErr[url]; err != nil {
		return err
	}
	s.CurrentURL = url
	return nil
}

func (s *Session) Element(_ context.Context, selector string, _ time.Duration) (browser.Element, error) {
	if el, ok := s.Elements[selector]; ok {
		return el, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTimeout, selector)
}

func (s *Session) ElementByText(_ context.Context, selector, pattern string, _ time.Duration) (browser.Element, error) {
	if el, ok := s.TextElements[selector]; ok {
		el.Pattern = pattern
		return el, nil
	}
	return nil, fmt.Errorf("%w: %s /%s/", ErrTimeout, selector, pattern)
}

func (s *Session) ClickAt(context.Context, float64, float64) error { return s.ClickAtErr }

func (s *Session) URL(context.Context) (string, error) { return s.CurrentURL, nil }

func (s *Session) HTML(context.Context) (string, error) {
	if s.HTMLErr != nil {
		return "", s.HTMLErr
	}
	if s.HTMLFunc != nil {
		return s.HTMLFunc(s.CurrentURL)
	}
	return s.Pages[s.CurrentURL], nil
}

func (s *Session) Eval(_ context.Context, js string) (string, error) {
	s.Evals = append(s.Evals, js)
	if s.EvalFunc == nil {
		return "", nil
	}
	return s.EvalFunc(js)
}

func (s *Session) Cookies(context.Context) ([]*http.Cookie, error) { return s.Cookie, nil }

func (s *Session) Close() error {
	s.Closed++
	return nil
}

// Element records what was done to it. OnClick runs after each click, e.g.
// to move the session to another URL.
type Element struct {
	Label    string
	Value    string
	Pattern  string
	Clicks   int
	ClickErr error
	OnClick  func()
}

func (e *Element) Text() (string, error) { return e.Label, nil }

func (e *Element) Click() error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *Element) Fill(text string) error {
	e.Value = text
	return nil
}

// Opener hands out Sessions in order. An exhausted Opener, or one with Err
// set, fails to open.
type Opener struct {
	Sessions []*Session
	Err      error
	Opened   int
}

func (o *Opener) Open(ctx context.Context) (browser.Session, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	if o.Opened >= len(o.Sessions) {
		return nil, errors.New("browsertest: no more sessions")
	}
	s := o.Sessions[o.Opened]
	o.Opened++
	return s, nil
}
