package checkin

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sznuper/checkin/internal/browser"
)

// UnknownBalance is reported when no balance could be read.
const UnknownBalance = "unknown"

var balancePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(元|¥|￥)`)

// Balance reads the dashboard and returns the first currency-marked number.
// It never fails; any problem yields UnknownBalance.
func (s *Site) Balance(ctx context.Context, log *slog.Logger, sess browser.Session) string {
	if err := sess.Navigate(ctx, s.DashboardURL); err != nil {
		log.Warn("balance: dashboard unreachable", "error", err)
		return UnknownBalance
	}
	if err := settle(ctx, s.Timing.Settle); err != nil {
		return UnknownBalance
	}

	html, err := sess.HTML(ctx)
	if err != nil {
		log.Warn("balance: reading dashboard failed", "error", err)
		return UnknownBalance
	}

	return ExtractBalance(PageText(html))
}

// ExtractBalance finds "<number> <glyph>" in text, e.g. "12.50 元".
func ExtractBalance(text string) string {
	m := balancePattern.FindStringSubmatch(text)
	if m == nil {
		return UnknownBalance
	}
	return m[1] + " " + m[2]
}

// PageText returns the visible text of an HTML document, one text node per
// line so numbers in neighbouring cells never run together.
func PageText(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, template").Remove()

	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(doc.Find("body"))

	return strings.Join(parts, "\n")
}
