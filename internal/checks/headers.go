package checks

import (
	"context"
	"net/http"

	"github.com/hamed0406/portalcheck/internal/envelope"
	"github.com/hamed0406/portalcheck/internal/policy"
	"github.com/hamed0406/portalcheck/internal/probe"
	"github.com/hamed0406/portalcheck/internal/suite"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

func headerChecks() []suite.Check {
	return []suite.Check{
		{
			Name:  "operational headers",
			Group: "headers",
			Steps: []suite.Step{
				{Name: "tracing and rate limit headers", Run: headersOnList},
			},
		},
		{
			Name:  "cors preflight",
			Group: "headers",
			Steps: []suite.Step{
				{Name: "options allows portal origin", Run: corsPreflight},
			},
		},
		{
			Name:  "csp on html",
			Group: "headers",
			Steps: []suite.Step{
				{Name: "portal landing page", Run: cspOnLanding},
			},
		},
		{
			Name:  "rate limit signaling",
			Group: "headers",
			Steps: []suite.Step{
				{Name: "burst draws a 429", Run: rateLimitBurst},
			},
		},
	}
}

func headersOnList(ctx context.Context, env *suite.Env, sc *suite.StepContext) verdict.Result {
	return classify(ctx, env, probe.Request{Path: "/benefits"},
		http.StatusOK, "operational headers", policy.ClassStrict,
		func(obs *probe.Observation) []verdict.Dependent {
			return []verdict.Dependent{
				lazily(func() verdict.Finding { return envelope.HeaderPresent(obs.Header, "X-Request-Id") }),
				lazily(func() verdict.Finding { return envelope.HeaderPresent(obs.Header, "X-RateLimit-Limit") }),
			}
		})
}

// corsPreflight sends a browser-shaped OPTIONS. Some deployments answer 200,
// some 204; both count, and header absence follows the header policy.
func corsPreflight(ctx context.Context, env *suite.Env, sc *suite.StepContext) verdict.Result {
	h := http.Header{}
	h.Set("Origin", "https://portal.example.gov")
	h.Set("Access-Control-Request-Method", http.MethodGet)

	obs, err := env.Prober.Do(ctx, probe.Request{
		Method: http.MethodOptions,
		Path:   "/benefits",
		Header: h,
		NoAuth: true,
	})
	pr := verdict.ProbeResult{
		ExpectedStatus: http.StatusNoContent,
		Endpoint:       "/benefits",
		Context:        "cors preflight",
		CI:             env.CI,
		Class:          policy.ClassHeader,
	}
	if err != nil {
		pr.Err = err
		return env.Runner.Classify(pr)
	}
	pr.Status = obs.Status
	if obs.Status == http.StatusOK {
		pr.ExpectedStatus = http.StatusOK
	}
	return env.Runner.Classify(pr, lazily(func() verdict.Finding {
		return envelope.HeaderPresent(obs.Header, "Access-Control-Allow-Origin")
	}))
}

// cspOnLanding asks the portal root for HTML and requires a
// content-security-policy header per the policy table.
func cspOnLanding(ctx context.Context, env *suite.Env, sc *suite.StepContext) verdict.Result {
	h := http.Header{}
	h.Set("Accept", "text/html")
	return classify(ctx, env, probe.Request{Path: "/", Header: h, NoAuth: true},
		http.StatusOK, "csp on landing page", policy.ClassRendering,
		func(obs *probe.Observation) []verdict.Dependent {
			return []verdict.Dependent{
				lazily(func() verdict.Finding {
					return envelope.HeaderPresent(obs.Header, "Content-Security-Policy")
				}),
			}
		})
}

// rateLimitBurst issues ten concurrent identical requests and expects the
// limiter to answer at least one with 429 plus retry-after. Timing-dependent,
// so outside CI a quiet limiter only warns.
func rateLimitBurst(ctx context.Context, env *suite.Env, sc *suite.StepContext) verdict.Result {
	const burst = 10
	out := env.Prober.Batch(ctx, probe.Request{Path: "/benefits"}, burst)

	pr := verdict.ProbeResult{
		ExpectedStatus: http.StatusTooManyRequests,
		Endpoint:       "/benefits",
		Context:        "rate limit burst",
		CI:             env.CI,
		Class:          policy.ClassTiming,
	}

	completed := probe.Completed(out)
	if completed == 0 {
		for _, o := range out {
			if o.Err != nil {
				pr.Err = o.Err
				break
			}
		}
		return env.Runner.Classify(pr)
	}

	var limited *probe.Observation
	last := 0
	for _, o := range out {
		if o.Err != nil || o.Obs == nil {
			continue
		}
		last = o.Obs.Status
		if o.Obs.Status == http.StatusTooManyRequests {
			limited = o.Obs
		}
	}

	if limited == nil {
		// no 429 in the whole burst: report the mismatch with whatever the
		// portal answered instead
		pr.Status = last
		return env.Runner.Classify(pr)
	}

	pr.Status = http.StatusTooManyRequests
	return env.Runner.Classify(pr,
		finding("all burst probes completed", completed == burst,
			"requests were dropped during the burst", policy.ClassStrict),
		lazily(func() verdict.Finding { return envelope.HeaderPresent(limited.Header, "Retry-After") }),
	)
}
