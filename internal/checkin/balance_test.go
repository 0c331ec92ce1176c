package checkin

import (
	"context"
	"errors"
	"testing"

	"github.com/sznuper/checkin/internal/browser/browsertest"
)

func TestExtractBalance(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"余额: 12.50 元", "12.50 元"},
		{"余额：8元", "8 元"},
		{"balance 3.2¥ left", "3.2 ¥"},
		{"账户 100.00\n￥", "100.00 ￥"},
		{"first 1 元 then 2 元", "1 元"},
		{"no currency 12.50 here", UnknownBalance},
		{"", UnknownBalance},
	}
	for _, tt := range tests {
		if got := ExtractBalance(tt.text); got != tt.want {
			t.Errorf("ExtractBalance(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestExtractBalance_Deterministic(t *testing.T) {
	const text = "余额: 12.50 元"
	first := ExtractBalance(text)
	for range 5 {
		if got := ExtractBalance(text); got != first {
			t.Fatalf("ExtractBalance not deterministic: %q vs %q", got, first)
		}
	}
}

func TestPageText(t *testing.T) {
	html := `<html><head><style>.x{}</style></head><body>
		<table><tr><td>3</td><td>12.50 元</td></tr></table>
		<script>var balance = "999 元";</script>
	</body></html>`

	text := PageText(html)
	if got := ExtractBalance(text); got != "12.50 元" {
		t.Errorf("balance = %q, want %q (text %q)", got, "12.50 元", text)
	}
}

func TestBalance(t *testing.T) {
	sess := browsertest.New()
	sess.Pages[dashboardURL] = `<body><span>余额:</span><b>8.00</b><i>元</i></body>`

	got := testSite().Balance(context.Background(), testLogger(), sess)
	if got != "8.00 元" {
		t.Errorf("balance = %q, want %q", got, "8.00 元")
	}
}

func TestBalance_Unreachable(t *testing.T) {
	sess := browsertest.New()
	sess.NavigateErr[dashboardURL] = errors.New("timeout")

	if got := testSite().Balance(context.Background(), testLogger(), sess); got != UnknownBalance {
		t.Errorf("balance = %q, want %q", got, UnknownBalance)
	}
}
