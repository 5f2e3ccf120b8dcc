package scheduler

import (
	"context"
	"time"

	"github.com/hamed0406/portalcheck/internal/notify"
	"github.com/hamed0406/portalcheck/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Alerter watches the latest run and notifies when a check flips red.
// A red check alerts at most once per cooldown window; recoveries bypass
// the cooldown.
type Alerter struct {
	runs     repo.RunStore
	state    repo.RegressionStore
	notifier notify.Notifier
	cfg      AlerterConfig
}

func NewAlerter(runs repo.RunStore, state repo.RegressionStore, notifier notify.Notifier, cfg AlerterConfig) *Alerter {
	return &Alerter{runs: runs, state: state, notifier: notifier, cfg: cfg}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	_ = a.scanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			_ = a.scanOnce(ctx)
		}
	}
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	rep, err := a.runs.Latest(ctx)
	if err != nil {
		return err
	}
	if rep == nil {
		return nil
	}

	now := time.Now()

	for _, cv := range rep.Checks {
		red := cv.Verdict.Failed()
		rec, _ := a.state.Get(ctx, cv.Check)

		// A check never seen before only matters if it is already red.
		changed := (rec == nil && red) || (rec != nil && rec.LastRed != red)

		cooled := true
		if rec != nil && rec.LastSentAt != nil {
			cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
		}

		redAlert := changed && red && cooled
		recoveryAlert := changed && !red && a.cfg.AlertOnRecovery

		if redAlert || recoveryAlert {
			var title, text string
			if red {
				title, text = notify.RegressionMessage(rep, cv.Check)
			} else {
				title, text = notify.RecoveryMessage(rep, cv.Check)
			}
			_ = a.notifier.Send(ctx, title, text)
			_ = a.state.Set(ctx, cv.Check, red, now)
			continue
		}

		// State flipped but nothing was sent (cooldown, or recovery alerts
		// off): record the new state without a send time.
		if changed {
			_ = a.state.Set(ctx, cv.Check, red, time.Time{})
		}
	}

	return nil
}
