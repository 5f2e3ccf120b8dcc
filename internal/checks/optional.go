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

func optionalChecks() []suite.Check {
	return []suite.Check{
		{
			Name:  "news feed",
			Group: "optional",
			Steps: []suite.Step{
				{Name: "list articles", Run: newsList},
			},
		},
	}
}

// newsList probes an endpoint only some deployments ship. A 404 here is a
// documented skip, never a failure.
func newsList(ctx context.Context, env *suite.Env, sc *suite.StepContext) verdict.Result {
	return classify(ctx, env, probe.Request{Path: "/news"},
		http.StatusOK, "news feed", policy.ClassStrict,
		func(obs *probe.Observation) []verdict.Dependent {
			return []verdict.Dependent{
				lazily(func() verdict.Finding { return envelope.DataArray(obs.Body) }),
			}
		})
}
