package checkin

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sznuper/checkin/internal/browser"
)

type TriggerKind int

const (
	// TriggerMiss means the strategy found nothing to act on; try the next one.
	TriggerMiss TriggerKind = iota
	TriggerFired
	TriggerAlreadyDone
)

// TriggerResult is what one strategy reports. Err explains a miss.
type TriggerResult struct {
	Kind   TriggerKind
	Detail string
	Err    error
}

// Trigger is one way of invoking the check-in action. Strategies are tried
// in order until one fires or reports the action as already done.
type Trigger struct {
	Name string
	Fire func(ctx context.Context, sess browser.Session) TriggerResult
}

// Triggers returns the strategies from most to least precise.
func (s *Site) Triggers() []Trigger {
	return []Trigger{
		{Name: "direct", Fire: s.directClick},
		{Name: "script-scan", Fire: s.scriptScan},
		{Name: "dispatch", Fire: dispatchClick},
	}
}

// labelPattern builds the JS regex used to find the check-in button.
func (s *Site) labelPattern() string {
	quoted := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		quoted[i] = regexp.QuoteMeta(l)
	}
	return strings.Join(quoted, "|")
}

func (s *Site) directClick(ctx context.Context, sess browser.Session) TriggerResult {
	el, err := sess.ElementByText(ctx, "button", s.labelPattern(), s.Timing.ElementTimeout)
	if err != nil {
		return TriggerResult{Kind: TriggerMiss, Err: fmt.Errorf("%w: check-in button", ErrElementNotFound)}
	}

	text, _ := el.Text()
	if containsAny(text, s.AlreadyMarkers) {
		return TriggerResult{Kind: TriggerAlreadyDone, Detail: text}
	}

	if err := el.Click(); err != nil {
		return TriggerResult{Kind: TriggerMiss, Err: fmt.Errorf("clicking check-in button: %w", err)}
	}
	return TriggerResult{Kind: TriggerFired, Detail: text}
}

// scanScript clicks the innermost element whose short text carries a label.
// querySelectorAll yields parents first, and a click on a wrapping container
// never reaches the control inside it, so any element with a labelled child
// is passed over in favour of that child.
const scanScript = `() => {
	const labels = %s;
	const already = %s;
	const textOf = el => (el.innerText || el.textContent || '').trim();
	const labelled = el => {
		const text = textOf(el);
		return text !== '' && text.length <= 40 && labels.some(l => text.includes(l));
	};
	for (const el of document.querySelectorAll('*')) {
		if (['SCRIPT', 'STYLE', 'HTML', 'BODY', 'HEAD'].includes(el.tagName)) continue;
		if (!labelled(el)) continue;
		if (Array.from(el.children).some(labelled)) continue;
		const text = textOf(el);
		if (already.some(m => text.includes(m))) return 'already\n' + text;
		el.click();
		return 'clicked\n' + text;
	}
	return '';
}`

func (s *Site) scriptScan(ctx context.Context, sess browser.Session) TriggerResult {
	labels, _ := json.Marshal(s.Labels)
	already, _ := json.Marshal(nonNil(s.AlreadyMarkers))

	res, err := sess.Eval(ctx, fmt.Sprintf(scanScript, labels, already))
	if err != nil {
		return TriggerResult{Kind: TriggerMiss, Err: fmt.Errorf("scan script: %w", err)}
	}

	verdict, text, _ := strings.Cut(res, "\n")
	switch verdict {
	case "already":
		return TriggerResult{Kind: TriggerAlreadyDone, Detail: text}
	case "clicked":
		return TriggerResult{Kind: TriggerFired, Detail: text}
	default:
		return TriggerResult{Kind: TriggerMiss, Err: fmt.Errorf("%w: no element with check-in label", ErrElementNotFound)}
	}
}

const dispatchScript = `() => {
	const opts = {bubbles: true, cancelable: true, view: window};
	document.dispatchEvent(new MouseEvent('click', opts));
	if (document.body) document.body.dispatchEvent(new MouseEvent('click', opts));
	return 'dispatched';
}`

// dispatchClick fires a document-level click for listeners bound outside
// any discoverable element.
func dispatchClick(ctx context.Context, sess browser.Session) TriggerResult {
	if _, err := sess.Eval(ctx, dispatchScript); err != nil {
		return TriggerResult{Kind: TriggerMiss, Err: fmt.Errorf("dispatch script: %w", err)}
	}
	return TriggerResult{Kind: TriggerFired}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
