package checks

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hamed0406/portalcheck/internal/envelope"
	"github.com/hamed0406/portalcheck/internal/policy"
	"github.com/hamed0406/portalcheck/internal/probe"
	"github.com/hamed0406/portalcheck/internal/suite"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

// xssTitle is a disposable payload; the fixed id keeps repeated runs from
// accumulating state on the target.
const xssTitle = `<script>alert('portalcheck')</script>`

func formsChecks() []suite.Check {
	return []suite.Check{
		{
			Name:  "forms not found",
			Group: "forms",
			Steps: []suite.Step{
				{Name: "unknown form id", Run: formsUnknownID},
			},
		},
		{
			Name:  "forms input sanitization",
			Group: "forms",
			Steps: []suite.Step{
				{Name: "xss title rejected", Run: formsXSSTitle},
			},
		},
	}
}

// formsUnknownID expects the 4xx envelope on a fabricated identifier.
func formsUnknownID(ctx context.Context, env *suite.Env, sc *suite.StepContext) verdict.Result {
	return classify(ctx, env, probe.Request{Path: "/forms/nonexistent-form-id"},
		http.StatusNotFound, "unknown form id", policy.ClassStrict,
		func(obs *probe.Observation) []verdict.Dependent {
			return []verdict.Dependent{
				lazily(func() verdict.Finding { return envelope.JSONContentType(obs.Header) }),
				lazily(func() verdict.Finding { return envelope.ErrorsArray(obs.Body) }),
			}
		})
}

// formsXSSTitle posts a script tag as the form title. The only acceptable
// answer is 400 with an errors array; a 200 is a hard failure everywhere.
func formsXSSTitle(ctx context.Context, env *suite.Env, sc *suite.StepContext) verdict.Result {
	body, _ := json.Marshal(map[string]string{
		"id":    "portalcheck-xss-probe",
		"title": xssTitle,
	})
	return classify(ctx, env, probe.Request{
		Method: http.MethodPost,
		Path:   "/forms",
		Body:   body,
	}, http.StatusBadRequest, "form title sanitization", policy.ClassStrict,
		func(obs *probe.Observation) []verdict.Dependent {
			return []verdict.Dependent{
				lazily(func() verdict.Finding { return envelope.ErrorsArray(obs.Body) }),
			}
		})
}
