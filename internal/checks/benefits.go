package checks

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hamed0406/portalcheck/internal/envelope"
	"github.com/hamed0406/portalcheck/internal/policy"
	"github.com/hamed0406/portalcheck/internal/probe"
	"github.com/hamed0406/portalcheck/internal/suite"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

func benefitsChecks() []suite.Check {
	return []suite.Check{
		{
			Name:  "benefits list",
			Group: "benefits",
			Steps: []suite.Step{
				{Name: "authorized list", Run: benefitsAuthorizedList},
				{Name: "detail round trip", Run: benefitsDetailRoundTrip},
			},
		},
		{
			Name:  "benefits auth enforcement",
			Group: "benefits",
			Steps: []suite.Step{
				{Name: "unauthenticated list rejected", Run: benefitsUnauthenticated},
			},
		},
	}
}

// benefitsAuthorizedList expects 200 with {data:[{id,name,eligibility}]} and
// captures the first element's id and name for the detail step.
func benefitsAuthorizedList(ctx context.Context, env *suite.Env, sc *suite.StepContext) verdict.Result {
	res := classify(ctx, env, probe.Request{Path: "/benefits"},
		http.StatusOK, "benefits list", policy.ClassStrict,
		func(obs *probe.Observation) []verdict.Dependent {
			return []verdict.Dependent{
				lazily(func() verdict.Finding { return envelope.JSONContentType(obs.Header) }),
				lazily(func() verdict.Finding { return envelope.DataArray(obs.Body) }),
				lazily(func() verdict.Finding {
					return envelope.ElementsHave(obs.Body, "id", "name", "eligibility")
				}),
				lazily(func() verdict.Finding { return envelope.HeaderPresent(obs.Header, "X-Request-Id") }),
				lazily(func() verdict.Finding {
					id, okID := envelope.FirstElementField(obs.Body, "id")
					name, _ := envelope.FirstElementField(obs.Body, "name")
					if okID {
						sc.Set("benefitId", id)
						sc.Set("benefitName", name)
					}
					return verdict.Finding{
						Name: "list non-empty", OK: okID,
						Detail: "no benefit to carry into the detail step",
						Class:  policy.ClassStrict,
					}
				}),
			}
		})
	return res
}

// benefitsDetailRoundTrip fetches the captured id and cross-checks the name
// against what the list reported.
func benefitsDetailRoundTrip(ctx context.Context, env *suite.Env, sc *suite.StepContext) verdict.Result {
	id, ok := sc.Get("benefitId")
	if !ok {
		return verdict.Result{
			Verdict: verdict.Infra,
			Reason:  "benefit detail: no identifier captured by the list step",
		}
	}
	listName, _ := sc.Get("benefitName")

	return classify(ctx, env, probe.Request{Path: "/benefits/" + id},
		http.StatusOK, "benefit detail", policy.ClassStrict,
		func(obs *probe.Observation) []verdict.Dependent {
			return []verdict.Dependent{
				lazily(func() verdict.Finding { return envelope.DataObject(obs.Body) }),
				lazily(func() verdict.Finding {
					name, found := envelope.ObjectField(obs.Body, "name")
					ok := found && name == listName
					return verdict.Finding{
						Name: "name agrees with list", OK: ok,
						Detail: fmt.Sprintf("list said %q, detail said %q", listName, name),
						Class:  policy.ClassStrict,
					}
				}),
			}
		})
}

// benefitsUnauthenticated probes without credentials; 401 and 403 both count
// as enforcement. A 200 here is a hard failure in every environment.
func benefitsUnauthenticated(ctx context.Context, env *suite.Env, sc *suite.StepContext) verdict.Result {
	obs, err := env.Prober.Do(ctx, probe.Request{Path: "/benefits", NoAuth: true})
	pr := verdict.ProbeResult{
		ExpectedStatus: http.StatusUnauthorized,
		Endpoint:       "/benefits",
		Context:        "benefits auth enforcement",
		CI:             env.CI,
		Class:          policy.ClassStrict,
	}
	if err != nil {
		pr.Err = err
		return env.Runner.Classify(pr)
	}
	pr.Status = obs.Status
	if obs.Status == http.StatusForbidden {
		pr.ExpectedStatus = http.StatusForbidden
	}
	return env.Runner.Classify(pr, lazily(func() verdict.Finding {
		return envelope.ErrorsArray(obs.Body)
	}))
}
