package verdict

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hamed0406/portalcheck/internal/policy"
)

// Runner classifies probe results against the policy table. It is stateless:
// every Classify call is independent, and it never panics or errors. A bad
// outcome is a verdict, not an exception.
type Runner struct {
	Policy *policy.Table
	Logger *zap.Logger
}

func NewRunner(table *policy.Table, logger *zap.Logger) *Runner {
	if table == nil {
		table = policy.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Policy: table, Logger: logger}
}

// Classify applies the decision policy, in order:
//
//  1. probe execution errors always fail, regardless of environment;
//  2. not-found on an endpoint the table marks optional skips with a warning;
//  3. a status match evaluates the dependent assertions;
//  4. a mismatch of an environment-sensitive class skips outside CI;
//  5. anything else fails, surfacing status, expectation and context.
//
// Every skip path logs the check's context so skipped checks stay
// discoverable in output instead of silently vanishing.
func (r *Runner) Classify(pr ProbeResult, deps ...Dependent) Result {
	if pr.Err != nil {
		// Infrastructure failure: the probe never produced a status worth
		// classifying. Timeouts land here too.
		r.Logger.Error("probe_error",
			zap.String("context", pr.Context),
			zap.String("endpoint", pr.Endpoint),
			zap.Error(pr.Err),
		)
		return Result{
			Verdict: Infra,
			Reason:  fmt.Sprintf("%s: probe failed: %v", pr.Context, pr.Err),
		}
	}

	if pr.Status == http.StatusNotFound && pr.ExpectedStatus != http.StatusNotFound &&
		r.Policy.Optional(pr.Endpoint) {
		r.Logger.Warn("check_skipped",
			zap.String("context", pr.Context),
			zap.String("endpoint", pr.Endpoint),
			zap.String("why", "optional endpoint absent in this deployment"),
		)
		return Result{
			Verdict: Skip,
			Reason:  fmt.Sprintf("%s: endpoint not present in this deployment", pr.Context),
		}
	}

	if pr.Status == pr.ExpectedStatus {
		return r.evaluate(pr, deps)
	}

	if !pr.CI && r.Policy.Sensitive(pr.Class) {
		r.Logger.Warn("check_skipped",
			zap.String("context", pr.Context),
			zap.String("endpoint", pr.Endpoint),
			zap.String("class", string(pr.Class)),
			zap.Int("status", pr.Status),
			zap.Int("expected", pr.ExpectedStatus),
			zap.String("why", "environment-sensitive mismatch outside CI"),
		)
		return Result{
			Verdict: Skip,
			Reason: fmt.Sprintf("%s: got %d, want %d (%s; advisory outside CI)",
				pr.Context, pr.Status, pr.ExpectedStatus, pr.Class),
		}
	}

	return Result{
		Verdict: Fail,
		Reason:  fmt.Sprintf("%s: got %d, want %d", pr.Context, pr.Status, pr.ExpectedStatus),
	}
}

// evaluate runs every dependent assertion so each individual failure stays
// attributable to this check. Failed findings of an environment-sensitive
// class are downgraded to warnings outside CI.
func (r *Runner) evaluate(pr ProbeResult, deps []Dependent) Result {
	findings := make([]Finding, 0, len(deps))
	var failed []string
	for _, dep := range deps {
		f := dep()
		if !f.OK && !pr.CI && r.Policy.Sensitive(f.Class) {
			f.Skipped = true
			r.Logger.Warn("finding_skipped",
				zap.String("context", pr.Context),
				zap.String("finding", f.Name),
				zap.String("class", string(f.Class)),
				zap.String("detail", f.Detail),
			)
		}
		if !f.OK && !f.Skipped {
			failed = append(failed, fmt.Sprintf("%s: %s", f.Name, f.Detail))
		}
		findings = append(findings, f)
	}

	if len(failed) > 0 {
		return Result{
			Verdict:  Fail,
			Reason:   fmt.Sprintf("%s: %s", pr.Context, strings.Join(failed, "; ")),
			Findings: findings,
		}
	}
	return Result{Verdict: Pass, Findings: findings}
}
