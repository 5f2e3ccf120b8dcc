package checks

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hamed0406/portalcheck/internal/policy"
	"github.com/hamed0406/portalcheck/internal/probe"
	"github.com/hamed0406/portalcheck/internal/suite"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

const fanout = 8

func concurrencyChecks() []suite.Check {
	return []suite.Check{
		{
			Name:  "concurrent stability",
			Group: "concurrency",
			Steps: []suite.Step{
				{Name: "parallel identical reads", Run: concurrentReads},
			},
		},
	}
}

// concurrentReads fans out identical GETs and requires every one of them to
// come back as a non-error response. A dropped request is an infrastructure
// failure, not a policy mismatch.
func concurrentReads(ctx context.Context, env *suite.Env, sc *suite.StepContext) verdict.Result {
	out := env.Prober.Batch(ctx, probe.Request{Path: "/benefits"}, fanout)

	pr := verdict.ProbeResult{
		ExpectedStatus: http.StatusOK,
		Endpoint:       "/benefits",
		Context:        "concurrent stability",
		CI:             env.CI,
		Class:          policy.ClassStrict,
	}

	completed := probe.Completed(out)
	if completed < fanout {
		for _, o := range out {
			if o.Err != nil {
				pr.Err = fmt.Errorf("%d/%d probes completed: %w", completed, fanout, o.Err)
				break
			}
		}
		return env.Runner.Classify(pr)
	}

	ok := probe.CountStatus(out, http.StatusOK)
	pr.Status = http.StatusOK
	if ok < fanout {
		// surface the first divergent status
		for _, o := range out {
			if o.Obs != nil && o.Obs.Status != http.StatusOK {
				pr.Status = o.Obs.Status
				break
			}
		}
	}
	return env.Runner.Classify(pr,
		finding("no request dropped", completed == fanout,
			fmt.Sprintf("completed %d of %d", completed, fanout), policy.ClassStrict),
	)
}
