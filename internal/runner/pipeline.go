package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sznuper/checkin/internal/browser"
	"github.com/sznuper/checkin/internal/checkin"
	"github.com/sznuper/checkin/internal/config"
	"github.com/sznuper/checkin/internal/notify"
)

// Opener starts a fresh browser session per account.
type Opener interface {
	Open(ctx context.Context) (browser.Session, error)
}

// Pipeline runs login → check-in → balance for one account.
type Pipeline struct {
	site   *checkin.Site
	mode   string
	opener Opener
	logger *slog.Logger
}

func NewPipeline(site *checkin.Site, mode string, opener Opener, logger *slog.Logger) *Pipeline {
	return &Pipeline{site: site, mode: mode, opener: opener, logger: logger}
}

// Run never returns an error and never panics: every failure, including a
// recovered panic, becomes a failed AccountResult. A panic while reading the
// balance only costs the balance. The browser is closed on every path.
func (p *Pipeline) Run(ctx context.Context, cred config.Credential) (res AccountResult) {
	log := p.logger.With("account", notify.Mask(cred.Identifier))
	start := time.Now()
	stage := "browser"

	res = AccountResult{
		Identifier: cred.Identifier,
		Balance:    checkin.UnknownBalance,
		State:      checkin.NotAttempted,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panicked", "stage", stage, "panic", r)
			if stage == "balance" {
				// The check-in already counted; only the balance is lost.
				res.Balance = checkin.UnknownBalance
			} else {
				res = failed(res, stage, fmt.Errorf("panic: %v", r))
			}
		}
		res.Duration = time.Since(start)
	}()

	log.Info("opening browser")
	sess, err := p.opener.Open(ctx)
	if err != nil {
		log.Error("browser failed", "error", err)
		return failed(res, stage, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn("closing browser", "error", err)
		}
	}()

	stage = "login"
	log.Info("logging in")
	if err := p.site.Login(ctx, log, sess, cred.Identifier, cred.Secret); err != nil {
		log.Error("login failed", "error", err)
		return failed(res, stage, err)
	}

	stage = "checkin"
	res.State = checkin.Attempting
	log.Info("checking in", "mode", p.mode)
	var out checkin.Outcome
	if p.mode == config.ModeAPI {
		out = p.site.APICheckin(ctx, log, sess)
	} else {
		out = p.site.Checkin(ctx, log, sess)
	}
	res.State = out.State
	res.Strategy = out.Strategy
	res.Message = out.Message
	if !out.State.OK() {
		res.Err = out.Err
		res.ErrStage = stage
		log.Error("check-in failed", "error", out.Err)
		return res
	}
	res.Succeeded = true

	stage = "balance"
	res.Balance = p.site.Balance(ctx, log, sess)
	log.Debug("balance read", "balance", res.Balance)

	return res
}

func failed(res AccountResult, stage string, err error) AccountResult {
	res.Succeeded = false
	res.State = checkin.Failed
	res.Balance = checkin.UnknownBalance
	res.Err = err
	res.ErrStage = stage
	res.Message = fmt.Sprintf("%s failed: %v", stage, err)
	return res
}
