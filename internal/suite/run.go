package suite

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/portalcheck/internal/verdict"
)

// StepOutcome ties one classified result back to its check and step.
type StepOutcome struct {
	Check   string
	Group   string
	Step    string
	Result  verdict.Result
	Elapsed float64 // ms
}

// Run executes the checks. Steps within a check run strictly in sequence and
// share one StepContext; checks run concurrently under a semaphore. The
// first non-pass verdict terminates its check's remaining steps.
func Run(ctx context.Context, env *Env, checks []Check, concurrency int) []StepOutcome {
	if concurrency < 1 {
		concurrency = 1
	}
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}

	outs := make([][]StepOutcome, len(checks))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, chk := range checks {
		i, chk := i, chk
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			outs[i] = runCheck(ctx, env, chk)
		}()
	}
	wg.Wait()

	var flat []StepOutcome
	for _, o := range outs {
		flat = append(flat, o...)
	}
	return flat
}

func runCheck(ctx context.Context, env *Env, chk Check) []StepOutcome {
	sc := NewStepContext()
	out := make([]StepOutcome, 0, len(chk.Steps))

	for _, step := range chk.Steps {
		if ctx.Err() != nil {
			out = append(out, StepOutcome{
				Check: chk.Name, Group: chk.Group, Step: step.Name,
				Result: verdict.Result{
					Verdict: verdict.Infra,
					Reason:  chk.Name + ": run cancelled",
				},
			})
			return out
		}

		res := step.Run(ctx, env, sc)
		out = append(out, StepOutcome{
			Check: chk.Name, Group: chk.Group, Step: step.Name, Result: res,
		})

		env.Logger.Debug("step_done",
			zap.String("check", chk.Name),
			zap.String("step", step.Name),
			zap.String("verdict", string(res.Verdict)),
		)

		if res.Verdict != verdict.Pass {
			// skip terminates the check without failing it; fail/infra
			// terminate it red either way
			return out
		}
	}
	return out
}
