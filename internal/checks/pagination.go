package checks

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/hamed0406/portalcheck/internal/envelope"
	"github.com/hamed0406/portalcheck/internal/policy"
	"github.com/hamed0406/portalcheck/internal/probe"
	"github.com/hamed0406/portalcheck/internal/suite"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

func paginationChecks() []suite.Check {
	return []suite.Check{
		{
			Name:  "benefits pagination",
			Group: "benefits",
			Steps: []suite.Step{
				{Name: "envelope shape", Run: paginationEnvelope},
				{Name: "idempotent query", Run: paginationIdempotent},
			},
		},
	}
}

func pageQuery() url.Values {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("limit", "5")
	return q
}

func paginationEnvelope(ctx context.Context, env *suite.Env, sc *suite.StepContext) verdict.Result {
	return classify(ctx, env, probe.Request{Path: "/benefits", Query: pageQuery()},
		http.StatusOK, "pagination envelope", policy.ClassStrict,
		func(obs *probe.Observation) []verdict.Dependent {
			return []verdict.Dependent{
				lazily(func() verdict.Finding { return envelope.PaginationMeta(obs.Body) }),
			}
		})
}

// paginationIdempotent issues the same query twice back to back and expects
// byte-identical payloads.
func paginationIdempotent(ctx context.Context, env *suite.Env, sc *suite.StepContext) verdict.Result {
	req := probe.Request{Path: "/benefits", Query: pageQuery()}
	pr := verdict.ProbeResult{
		ExpectedStatus: http.StatusOK,
		Endpoint:       "/benefits",
		Context:        "pagination idempotence",
		CI:             env.CI,
		Class:          policy.ClassStrict,
	}

	first, err := env.Prober.Do(ctx, req)
	if err != nil {
		pr.Err = err
		return env.Runner.Classify(pr)
	}
	second, err := env.Prober.Do(ctx, req)
	if err != nil {
		pr.Err = err
		return env.Runner.Classify(pr)
	}

	pr.Status = first.Status
	return env.Runner.Classify(pr,
		finding("second query status", second.Status == first.Status,
			"statuses differ between identical queries", policy.ClassStrict),
		finding("identical payloads", bytes.Equal(first.Body, second.Body),
			"payload changed between identical queries", policy.ClassStrict),
	)
}
