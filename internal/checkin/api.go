package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/sznuper/checkin/internal/browser"
)

// APICheckin replays the session's cookies against each configured endpoint
// and stops at the first HTTP 200 whose body carries a success or "already"
// marker.
func (s *Site) APICheckin(ctx context.Context, log *slog.Logger, sess browser.Session) Outcome {
	cookies, err := sess.Cookies(ctx)
	if err != nil {
		return outcome(Failed, "api", err)
	}

	client := resty.New().
		SetTimeout(s.Timing.RequestTimeout).
		SetCookies(cookies).
		SetHeaders(map[string]string{
			"Accept":           "application/json, text/plain, */*",
			"Referer":          s.CheckinURL,
			"X-Requested-With": "XMLHttpRequest",
		})

	var lastErr error
	for _, endpoint := range s.Endpoints {
		resp, err := client.R().SetContext(ctx).Post(endpoint)
		if err != nil {
			lastErr = fmt.Errorf("%w: %s: %w", ErrTransport, endpoint, err)
			log.Warn("check-in endpoint unreachable", "endpoint", endpoint, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if resp.StatusCode() != http.StatusOK {
			lastErr = fmt.Errorf("%s: status %d", endpoint, resp.StatusCode())
			log.Debug("check-in endpoint rejected", "endpoint", endpoint, "status", resp.StatusCode())
			continue
		}

		if state := s.Classify(resp.String()); state != Unconfirmed {
			log.Info("api check-in accepted", "endpoint", endpoint, "state", state)
			return outcome(state, "api", nil)
		}
		lastErr = fmt.Errorf("%s: no success marker in response", endpoint)
		log.Debug("check-in endpoint gave no marker", "endpoint", endpoint)
	}

	return outcome(Failed, "api", wrapLast(ErrAPICheckinMiss, lastErr))
}
