package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hamed0406/portalcheck/internal/report"
	"github.com/hamed0406/portalcheck/internal/suite"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

func TestObserve_CountsByVerdict(t *testing.T) {
	r := report.Build("http://localhost:3000", true,
		time.Now().Add(-time.Second), time.Now(),
		[]suite.StepOutcome{
			{Check: "a", Group: "benefits", Step: "s",
				Result: verdict.Result{Verdict: verdict.Pass}},
			{Check: "b", Group: "headers", Step: "s",
				Result: verdict.Result{Verdict: verdict.Fail}},
		})

	before := testutil.ToFloat64(ChecksTotal.WithLabelValues("benefits", "pass"))
	beforeRed := testutil.ToFloat64(RunsTotal.WithLabelValues("red"))
	Observe(r)

	if got := testutil.ToFloat64(ChecksTotal.WithLabelValues("benefits", "pass")); got != before+1 {
		t.Fatalf("pass counter not incremented: %v", got)
	}
	if got := testutil.ToFloat64(RunsTotal.WithLabelValues("red")); got != beforeRed+1 {
		t.Fatalf("red run counter not incremented: %v", got)
	}
}

func TestHandler_Serves(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}
