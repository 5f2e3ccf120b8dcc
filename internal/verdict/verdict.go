package verdict

import "github.com/hamed0406/portalcheck/internal/policy"

// Verdict is the tri-state outcome of one classified check. Infra is the
// fourth, always-failing state reserved for probes that never completed.
type Verdict string

const (
	Pass  Verdict = "pass"
	Skip  Verdict = "skip"
	Fail  Verdict = "fail"
	Infra Verdict = "infra"
)

// Failed reports whether the verdict should turn the run red.
func (v Verdict) Failed() bool { return v == Fail || v == Infra }

// ProbeResult is the ephemeral, per-check value the runner classifies. It
// never outlives a single check.
type ProbeResult struct {
	Status         int          // observed HTTP status; 0 when the probe never completed
	ExpectedStatus int          // what the check author considers success
	Endpoint       string       // probed path, used for the optionality lookup
	Context        string       // human-readable label for logs and failures
	CI             bool         // true under CI; disables skip-by-environment
	Class          policy.Class // how a mismatch of this check should be treated
	Err            error        // set when the probe itself failed to execute
}

// Finding is the result of one dependent structural assertion, evaluated only
// when the probe status matched the expectation.
type Finding struct {
	Name    string
	OK      bool
	Skipped bool // failed, but downgraded to a warning outside CI
	Detail  string
	Class   policy.Class
}

// Dependent produces one structural assertion result over the probe's payload.
type Dependent func() Finding

// Result is what Classify returns: the verdict, a reason for anything that
// is not a clean pass, and the dependent findings when they were evaluated.
type Result struct {
	Verdict  Verdict
	Reason   string
	Findings []Finding
}
