package repo

import (
	"context"
	"time"

	"github.com/hamed0406/portalcheck/internal/report"
)

// RunSummary is the list-view projection of a stored run.
type RunSummary struct {
	ID          string    `json:"id"`
	Environment string    `json:"environment"`
	BaseURL     string    `json:"base_url"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Passed      int       `json:"passed"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	Infra       int       `json:"infra"`
	Red         bool      `json:"red"`
}

func Summarize(r *report.Report) RunSummary {
	return RunSummary{
		ID:          r.ID,
		Environment: r.Environment,
		BaseURL:     r.BaseURL,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Passed:      r.Passed,
		Skipped:     r.Skipped,
		Failed:      r.Failed,
		Infra:       r.Infra,
		Red:         r.Red(),
	}
}

// Ports (interfaces): swap in any adapter.
type RunStore interface {
	Save(ctx context.Context, r *report.Report) error
	// ByID returns nil, nil when the run is unknown.
	ByID(ctx context.Context, id string) (*report.Report, error)
	Latest(ctx context.Context) (*report.Report, error)
	List(ctx context.Context, limit int) ([]RunSummary, error)
}

// RegressionRecord holds last-known state per check and the last time an
// alert went out for it (used for cooldown).
type RegressionRecord struct {
	Check      string
	LastRed    bool
	LastSentAt *time.Time
}

// RegressionStore is implemented by a persistence layer tracking alert state.
type RegressionStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, check string) (*RegressionRecord, error)
	// Set upserts the record. A zero sentAt stores NULL for last_sent_at.
	Set(ctx context.Context, check string, red bool, sentAt time.Time) error
}
