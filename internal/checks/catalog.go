// Package checks holds the contract-check catalog run against the portal.
// Each check probes one affordance and hands the outcome to the verdict
// runner; nothing in here asserts directly.
package checks

import (
	"context"

	"github.com/hamed0406/portalcheck/internal/policy"
	"github.com/hamed0406/portalcheck/internal/probe"
	"github.com/hamed0406/portalcheck/internal/suite"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

// Catalog returns every check in the suite.
func Catalog() []suite.Check {
	var out []suite.Check
	out = append(out, benefitsChecks()...)
	out = append(out, formsChecks()...)
	out = append(out, paginationChecks()...)
	out = append(out, optionalChecks()...)
	out = append(out, headerChecks()...)
	out = append(out, concurrencyChecks()...)
	return out
}

// depsFunc builds the dependent assertions for a completed observation. The
// runner only evaluates them when the status matched the expectation.
type depsFunc func(obs *probe.Observation) []verdict.Dependent

// classify issues one probe and routes it through the runner.
func classify(ctx context.Context, env *suite.Env, req probe.Request,
	expect int, label string, class policy.Class, deps depsFunc) verdict.Result {

	pr := verdict.ProbeResult{
		ExpectedStatus: expect,
		Endpoint:       req.Path,
		Context:        label,
		CI:             env.CI,
		Class:          class,
	}

	obs, err := env.Prober.Do(ctx, req)
	if err != nil {
		pr.Err = err
		return env.Runner.Classify(pr)
	}
	pr.Status = obs.Status

	var ds []verdict.Dependent
	if deps != nil {
		ds = deps(obs)
	}
	return env.Runner.Classify(pr, ds...)
}

// finding wraps an ad-hoc comparison into a dependent assertion.
func finding(name string, ok bool, detail string, class policy.Class) verdict.Dependent {
	return func() verdict.Finding {
		return verdict.Finding{Name: name, OK: ok, Detail: detail, Class: class}
	}
}

// lazily defers an envelope validator until the runner asks for it.
func lazily(fn func() verdict.Finding) verdict.Dependent { return fn }
