package checkin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sznuper/checkin/internal/browser"
	"github.com/sznuper/checkin/internal/browser/browsertest"
)

func checkinPage(after string) *browsertest.Session {
	sess := browsertest.New()
	sess.Pages[checkinURL] = after
	return sess
}

func TestCheckin_DirectClickSucceeded(t *testing.T) {
	sess := checkinPage(`<body><p>签到成功，获得 1 元</p></body>`)
	btn := &browsertest.Element{Label: "每日签到"}
	sess.TextElements["button"] = btn

	out := testSite().Checkin(context.Background(), testLogger(), sess)
	if out.State != Succeeded {
		t.Fatalf("state = %s, want succeeded (err %v)", out.State, out.Err)
	}
	if out.Strategy != "direct" {
		t.Errorf("strategy = %q, want direct", out.Strategy)
	}
	if btn.Clicks != 1 {
		t.Errorf("clicks = %d, want 1", btn.Clicks)
	}
	if len(sess.Evals) != 0 {
		t.Errorf("evals = %d, later strategies must not run", len(sess.Evals))
	}
	if btn.Pattern != "签到" {
		t.Errorf("pattern = %q, want %q", btn.Pattern, "签到")
	}
}

func TestCheckin_AlreadyCheckedInWithoutClick(t *testing.T) {
	sess := checkinPage("")
	btn := &browsertest.Element{Label: "今日已签到"}
	sess.TextElements["button"] = btn

	out := testSite().Checkin(context.Background(), testLogger(), sess)
	if out.State != AlreadyCheckedIn {
		t.Fatalf("state = %s, want already_checked_in", out.State)
	}
	if btn.Clicks != 0 {
		t.Errorf("clicks = %d, want 0", btn.Clicks)
	}
}

func TestCheckin_ScriptScanFallback(t *testing.T) {
	sess := checkinPage(`<body><div>已签到</div></body>`)
	sess.EvalFunc = func(js string) (string, error) {
		return "clicked\n签到", nil
	}

	out := testSite().Checkin(context.Background(), testLogger(), sess)
	if out.State != AlreadyCheckedIn {
		t.Fatalf("state = %s, want already_checked_in from page text", out.State)
	}
	if out.Strategy != "script-scan" {
		t.Errorf("strategy = %q, want script-scan", out.Strategy)
	}
	if len(sess.Evals) != 1 {
		t.Errorf("evals = %d, want 1 (dispatch must not run)", len(sess.Evals))
	}
	if !strings.Contains(sess.Evals[0], `["签到"]`) {
		t.Errorf("scan script missing labels: %s", sess.Evals[0])
	}
}

func TestCheckin_ScriptScanPrefersInnermostElement(t *testing.T) {
	sess := checkinPage(`<body><div class="card"><button>签到</button></div><p>签到成功</p></body>`)
	sess.EvalFunc = func(js string) (string, error) { return "clicked\n签到", nil }

	out := testSite().Checkin(context.Background(), testLogger(), sess)
	if out.Strategy != "script-scan" {
		t.Fatalf("strategy = %q, want script-scan", out.Strategy)
	}

	js := sess.Evals[0]
	for _, want := range []string{
		"Array.from(el.children).some(labelled)",
		"text.length <= 40",
		"el.click()",
	} {
		if !strings.Contains(js, want) {
			t.Errorf("scan script missing %q:\n%s", want, js)
		}
	}
	// The child check has to run before the click, or the wrapping div wins.
	if strings.Index(js, "el.children") > strings.Index(js, "el.click()") {
		t.Errorf("container check comes after the click:\n%s", js)
	}
}

func TestCheckin_DispatchFallbackUnconfirmed(t *testing.T) {
	sess := checkinPage(`<body><p>欢迎</p></body>`)
	sess.EvalFunc = func(js string) (string, error) {
		if strings.Contains(js, "dispatchEvent") {
			return "dispatched", nil
		}
		return "", nil
	}

	out := testSite().Checkin(context.Background(), testLogger(), sess)
	if out.State != Unconfirmed {
		t.Fatalf("state = %s, want unconfirmed", out.State)
	}
	if out.Strategy != "dispatch" {
		t.Errorf("strategy = %q, want dispatch", out.Strategy)
	}
	if !out.State.OK() {
		t.Error("unconfirmed should count as OK")
	}
}

func TestCheckin_AllStrategiesFail(t *testing.T) {
	sess := checkinPage("")
	sess.EvalFunc = func(string) (string, error) { return "", errors.New("page crashed") }

	out := testSite().Checkin(context.Background(), testLogger(), sess)
	if out.State != Failed {
		t.Fatalf("state = %s, want failed", out.State)
	}
	if !errors.Is(out.Err, ErrNoTrigger) {
		t.Errorf("err = %v, want ErrNoTrigger", out.Err)
	}
	if out.State.OK() {
		t.Error("failed should not count as OK")
	}
}

func TestCheckin_NavigateError(t *testing.T) {
	sess := checkinPage("")
	sess.NavigateErr[checkinURL] = errors.New("connection reset")

	out := testSite().Checkin(context.Background(), testLogger(), sess)
	if out.State != Failed {
		t.Fatalf("state = %s, want failed", out.State)
	}
}

func TestCheckin_UnreadablePageIsUnconfirmed(t *testing.T) {
	sess := checkinPage("")
	sess.TextElements["button"] = &browsertest.Element{Label: "签到"}
	sess.HTMLErr = errors.New("target closed")

	out := testSite().Checkin(context.Background(), testLogger(), sess)
	if out.State != Unconfirmed {
		t.Fatalf("state = %s, want unconfirmed", out.State)
	}
}

func TestRunTriggers_ShortCircuits(t *testing.T) {
	var ran []string
	record := func(name string, kind TriggerKind) Trigger {
		return Trigger{Name: name, Fire: func(context.Context, browser.Session) TriggerResult {
			ran = append(ran, name)
			return TriggerResult{Kind: kind}
		}}
	}

	sess := checkinPage("")
	out := testSite().RunTriggers(context.Background(), testLogger(), sess, []Trigger{
		record("a", TriggerMiss),
		record("b", TriggerFired),
		record("c", TriggerFired),
	})

	if strings.Join(ran, ",") != "a,b" {
		t.Errorf("ran = %v, want [a b]", ran)
	}
	if out.Strategy != "b" {
		t.Errorf("strategy = %q, want b", out.Strategy)
	}
}

func TestRunTriggers_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := testSite().RunTriggers(ctx, testLogger(), checkinPage(""), testSite().Triggers())
	if out.State != Failed || !errors.Is(out.Err, context.Canceled) {
		t.Fatalf("outcome = %+v, want failed with context.Canceled", out)
	}
}

func TestClassify(t *testing.T) {
	s := testSite()
	tests := []struct {
		text string
		want State
	}{
		{"签到成功！", Succeeded},
		{"您今日已签到", AlreadyCheckedIn},
		{"已签到 签到成功", AlreadyCheckedIn},
		{"nothing here", Unconfirmed},
		{"", Unconfirmed},
	}
	for _, tt := range tests {
		if got := s.Classify(tt.text); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestOutcomeText(t *testing.T) {
	out := outcome(Failed, "", ErrNoTrigger)
	if !strings.Contains(out.Message, "failed") || !strings.Contains(out.Message, ErrNoTrigger.Error()) {
		t.Errorf("message = %q", out.Message)
	}
	if msg := outcome(Succeeded, "direct", nil).Message; msg != "check-in succeeded" {
		t.Errorf("message = %q", msg)
	}
}
