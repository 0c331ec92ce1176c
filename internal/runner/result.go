package runner

import (
	"time"

	"github.com/sznuper/checkin/internal/checkin"
)

// AccountResult captures the outcome of running one account through the
// pipeline. Errors are stored in Err/ErrStage rather than returned, so the
// caller always has something to report.
type AccountResult struct {
	Identifier string
	Succeeded  bool
	Message    string
	Balance    string
	State      checkin.State
	Strategy   string
	Duration   time.Duration
	Err        error
	ErrStage   string // "browser", "login", "checkin", "skipped"
}

// Report is one run over every configured account, in configuration order.
type Report struct {
	Results      []AccountResult
	Notification string   // rendered message
	Notified     []string // services notified (or would-notify)
	NotifyErr    error
	DryRun       bool
}

// Failed returns how many accounts did not succeed.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Succeeded {
			n++
		}
	}
	return n
}
