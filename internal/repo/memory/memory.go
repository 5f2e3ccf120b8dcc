package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/portalcheck/internal/repo"
	"github.com/hamed0406/portalcheck/internal/report"
)

type Store struct {
	mu          sync.RWMutex
	runs        []*report.Report // newest last
	regressions map[string]*repo.RegressionRecord
}

func New() *Store {
	return &Store{
		regressions: make(map[string]*repo.RegressionRecord),
	}
}

var _ repo.RunStore = (*Store)(nil)
var _ repo.RegressionStore = (*Store)(nil)

func (m *Store) Save(ctx context.Context, r *report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.runs = append(m.runs, &cp)
	return nil
}

func (m *Store) ByID(ctx context.Context, id string) (*report.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.runs {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Store) Latest(ctx context.Context) (*report.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.runs) == 0 {
		return nil, nil
	}
	cp := *m.runs[len(m.runs)-1]
	return &cp, nil
}

func (m *Store) List(ctx context.Context, limit int) ([]repo.RunSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.runs) {
		limit = len(m.runs)
	}
	out := make([]repo.RunSummary, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, repo.Summarize(m.runs[i]))
	}
	return out, nil
}

// ---- RegressionStore ----

func (m *Store) Get(ctx context.Context, check string) (*repo.RegressionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.regressions[check]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *Store) Set(ctx context.Context, check string, red bool, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := &repo.RegressionRecord{Check: check, LastRed: red}
	if !sentAt.IsZero() {
		t := sentAt
		rec.LastSentAt = &t
	} else if old, ok := m.regressions[check]; ok {
		rec.LastSentAt = old.LastSentAt
	}
	m.regressions[check] = rec
	return nil
}
