// Package metrics exposes Prometheus counters for suite runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/portalcheck/internal/report"
)

var (
	// ChecksTotal counts classified step outcomes by group and verdict.
	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portalcheck_checks_total",
			Help: "Classified check outcomes",
		},
		[]string{"group", "verdict"},
	)

	// RunsTotal counts completed suite runs by overall outcome.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portalcheck_runs_total",
			Help: "Completed suite runs",
		},
		[]string{"outcome"},
	)

	// RunDuration measures whole-run wall time.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portalcheck_run_duration_seconds",
			Help:    "Suite run duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

// Observe records one finished run.
func Observe(r *report.Report) {
	for _, l := range r.Lines {
		ChecksTotal.WithLabelValues(l.Group, string(l.Verdict)).Inc()
	}
	outcome := "green"
	if r.Red() {
		outcome = "red"
	}
	RunsTotal.WithLabelValues(outcome).Inc()
	RunDuration.Observe(r.FinishedAt.Sub(r.StartedAt).Seconds())
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }
