package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/portalcheck/internal/suite"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

// Line is one step's classified outcome inside a run report.
type Line struct {
	Check   string          `json:"check"`
	Group   string          `json:"group"`
	Step    string          `json:"step"`
	Verdict verdict.Verdict `json:"verdict"`
	Reason  string          `json:"reason,omitempty"`
}

// CheckVerdict is the per-check rollup: the worst verdict among its steps.
type CheckVerdict struct {
	Check   string          `json:"check"`
	Group   string          `json:"group"`
	Verdict verdict.Verdict `json:"verdict"`
}

// Report is one complete suite run.
type Report struct {
	ID          string         `json:"id"`
	BaseURL     string         `json:"base_url"`
	Environment string         `json:"environment"` // "ci" or "local"
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	Lines       []Line         `json:"lines"`
	Checks      []CheckVerdict `json:"checks"`
	Passed      int            `json:"passed"`
	Skipped     int            `json:"skipped"`
	Failed      int            `json:"failed"`
	Infra       int            `json:"infra"`
}

func severity(v verdict.Verdict) int {
	switch v {
	case verdict.Infra:
		return 3
	case verdict.Fail:
		return 2
	case verdict.Skip:
		return 1
	default:
		return 0
	}
}

// Build rolls a run's step outcomes into a report.
func Build(baseURL string, ci bool, started, finished time.Time, outcomes []suite.StepOutcome) *Report {
	env := "local"
	if ci {
		env = "ci"
	}
	r := &Report{
		ID:          uuid.NewString(),
		BaseURL:     baseURL,
		Environment: env,
		StartedAt:   started.UTC(),
		FinishedAt:  finished.UTC(),
	}

	worst := make(map[string]verdict.Verdict)
	var order []string
	group := make(map[string]string)

	for _, o := range outcomes {
		r.Lines = append(r.Lines, Line{
			Check: o.Check, Group: o.Group, Step: o.Step,
			Verdict: o.Result.Verdict, Reason: o.Result.Reason,
		})
		switch o.Result.Verdict {
		case verdict.Pass:
			r.Passed++
		case verdict.Skip:
			r.Skipped++
		case verdict.Fail:
			r.Failed++
		case verdict.Infra:
			r.Infra++
		}
		if _, seen := worst[o.Check]; !seen {
			order = append(order, o.Check)
			group[o.Check] = o.Group
		}
		if severity(o.Result.Verdict) > severity(worst[o.Check]) {
			worst[o.Check] = o.Result.Verdict
		}
	}

	for _, name := range order {
		v := worst[name]
		if v == "" {
			v = verdict.Pass
		}
		r.Checks = append(r.Checks, CheckVerdict{Check: name, Group: group[name], Verdict: v})
	}
	return r
}

// Red reports whether the run should fail the caller.
func (r *Report) Red() bool { return r.Failed > 0 || r.Infra > 0 }

// ExitCode maps the run outcome onto a process exit code.
func (r *Report) ExitCode() int {
	if r.Red() {
		return 1
	}
	return 0
}

// Summary renders the human-readable run summary: one line per step plus the
// aggregate tally.
func (r *Report) Summary() string {
	var b strings.Builder
	for _, l := range r.Lines {
		mark := "✔"
		switch l.Verdict {
		case verdict.Skip:
			mark = "⚠"
		case verdict.Fail, verdict.Infra:
			mark = "✖"
		}
		fmt.Fprintf(&b, "%s %s / %s", mark, l.Check, l.Step)
		if l.Reason != "" {
			fmt.Fprintf(&b, " — %s", l.Reason)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\n%d passed, %d skipped, %d failed, %d infra (%s, %s)\n",
		r.Passed, r.Skipped, r.Failed, r.Infra,
		r.Environment, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	return b.String()
}
