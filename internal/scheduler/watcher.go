// Package scheduler drives periodic suite runs and regression alerting.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/portalcheck/internal/metrics"
	"github.com/hamed0406/portalcheck/internal/repo"
	"github.com/hamed0406/portalcheck/internal/report"
)

// RunFunc executes the suite once and builds the report. The watcher owns
// persistence and metrics; the closure owns probing.
type RunFunc func(ctx context.Context) (*report.Report, error)

type Watcher struct {
	Logger   *zap.Logger
	Runs     repo.RunStore
	RunSuite RunFunc
	Interval time.Duration
	Timeout  time.Duration
}

func NewWatcher(logger *zap.Logger, runs repo.RunStore, run RunFunc, interval, timeout time.Duration) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Watcher{Logger: logger, Runs: runs, RunSuite: run, Interval: interval, Timeout: timeout}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	if w.Interval == 0 {
		w.Logger.Info("watcher_disabled")
		return
	}
	t := time.NewTicker(w.Interval)
	defer t.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("watcher_stopped")
			return
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	rep, err := w.RunSuite(cctx)
	if err != nil {
		w.Logger.Warn("watcher_run_error", zap.Error(err))
		return
	}

	metrics.Observe(rep)

	if err := w.Runs.Save(ctx, rep); err != nil {
		w.Logger.Warn("watcher_save_error", zap.String("run_id", rep.ID), zap.Error(err))
	}

	w.Logger.Info("watcher_run_done",
		zap.String("run_id", rep.ID),
		zap.Int("passed", rep.Passed),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed", rep.Failed),
		zap.Int("infra", rep.Infra),
		zap.Bool("red", rep.Red()),
	)
}
