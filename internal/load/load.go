// Package load drives declarative load stages against one portal endpoint.
// Stages are configuration, not assertions: results are advisory and never
// turn a run red on their own.
package load

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hamed0406/portalcheck/internal/probe"
)

// Stage is one step of a load profile.
type Stage struct {
	Name     string        `yaml:"name"`
	Duration time.Duration `yaml:"duration"`
	RPS      float64       `yaml:"rps"`
}

// DefaultStages is the profile used when no file overrides it: a short
// warm-up, then a modest sustained rate. Deliberately gentle; this suite
// shares the target with real traffic.
func DefaultStages() []Stage {
	return []Stage{
		{Name: "warmup", Duration: 5 * time.Second, RPS: 2},
		{Name: "sustained", Duration: 15 * time.Second, RPS: 8},
	}
}

// Result summarizes one completed stage.
type Result struct {
	Stage     string  `json:"stage"`
	Requests  int64   `json:"requests"`
	NonOK     int64   `json:"non_ok"`
	Errors    int64   `json:"errors"`
	MeanMS    float64 `json:"mean_ms"`
	SlowestMS float64 `json:"slowest_ms"`
}

type Runner struct {
	Prober *probe.Prober
	Logger *zap.Logger
}

func NewRunner(p *probe.Prober, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Prober: p, Logger: logger}
}

// Run executes the stages in order against the given request. Cancelling the
// context ends the current stage early; completed stages are still reported.
func (r *Runner) Run(ctx context.Context, req probe.Request, stages []Stage) []Result {
	var out []Result
	for _, st := range stages {
		out = append(out, r.runStage(ctx, req, st))
		if ctx.Err() != nil {
			break
		}
	}
	return out
}

func (r *Runner) runStage(ctx context.Context, req probe.Request, st Stage) Result {
	if st.RPS <= 0 {
		st.RPS = 1
	}
	lim := rate.NewLimiter(rate.Limit(st.RPS), 1)
	deadline := time.Now().Add(st.Duration)

	var (
		requests, nonOK, errs atomic.Int64
		latMu                 sync.Mutex
		totalMS, slowestMS    float64
		wg                    sync.WaitGroup
	)

	for time.Now().Before(deadline) && ctx.Err() == nil {
		if err := lim.Wait(ctx); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			requests.Add(1)
			obs, err := r.Prober.Do(ctx, req)
			if err != nil {
				errs.Add(1)
				return
			}
			if obs.Status < 200 || obs.Status >= 300 {
				nonOK.Add(1)
			}
			latMu.Lock()
			totalMS += obs.LatencyMS
			if obs.LatencyMS > slowestMS {
				slowestMS = obs.LatencyMS
			}
			latMu.Unlock()
		}()
	}
	wg.Wait()

	res := Result{
		Stage:     st.Name,
		Requests:  requests.Load(),
		NonOK:     nonOK.Load(),
		Errors:    errs.Load(),
		SlowestMS: slowestMS,
	}
	if completed := res.Requests - res.Errors; completed > 0 {
		res.MeanMS = totalMS / float64(completed)
	}

	r.Logger.Info("load_stage_done",
		zap.String("stage", st.Name),
		zap.Int64("requests", res.Requests),
		zap.Int64("non_ok", res.NonOK),
		zap.Int64("errors", res.Errors),
		zap.Float64("mean_ms", res.MeanMS),
	)
	return res
}
