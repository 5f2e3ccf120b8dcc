// Package cached decorates a RunStore with a Redis-backed report cache.
package cached

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/portalcheck/internal/cache"
	"github.com/hamed0406/portalcheck/internal/repo"
	"github.com/hamed0406/portalcheck/internal/report"
)

const (
	latestKey = "portalcheck:run:latest"
	runPrefix = "portalcheck:run:"
)

// RunStore wraps another RunStore with write-through caching of full reports.
// Cache failures are logged and otherwise ignored; the inner store stays the
// source of truth.
type RunStore struct {
	inner repo.RunStore
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

var _ repo.RunStore = (*RunStore)(nil)

func New(inner repo.RunStore, c cache.Cache, ttl time.Duration, log *zap.Logger) *RunStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RunStore{inner: inner, cache: c, ttl: ttl, log: log}
}

func (s *RunStore) Save(ctx context.Context, r *report.Report) error {
	if err := s.inner.Save(ctx, r); err != nil {
		return err
	}
	if payload, err := json.Marshal(r); err == nil {
		s.put(ctx, runPrefix+r.ID, payload)
		s.put(ctx, latestKey, payload)
	}
	return nil
}

func (s *RunStore) ByID(ctx context.Context, id string) (*report.Report, error) {
	if r := s.cached(ctx, runPrefix+id); r != nil {
		return r, nil
	}
	r, err := s.inner.ByID(ctx, id)
	if err != nil || r == nil {
		return r, err
	}
	if payload, merr := json.Marshal(r); merr == nil {
		s.put(ctx, runPrefix+id, payload)
	}
	return r, nil
}

func (s *RunStore) Latest(ctx context.Context) (*report.Report, error) {
	if r := s.cached(ctx, latestKey); r != nil {
		return r, nil
	}
	r, err := s.inner.Latest(ctx)
	if err != nil || r == nil {
		return r, err
	}
	if payload, merr := json.Marshal(r); merr == nil {
		s.put(ctx, latestKey, payload)
	}
	return r, nil
}

// List always hits the inner store; summaries are cheap to query and change
// with every run.
func (s *RunStore) List(ctx context.Context, limit int) ([]repo.RunSummary, error) {
	return s.inner.List(ctx, limit)
}

func (s *RunStore) cached(ctx context.Context, key string) *report.Report {
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		if err != cache.ErrMiss {
			s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	var r report.Report
	if err := json.Unmarshal(payload, &r); err != nil {
		s.log.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		_ = s.cache.Delete(ctx, key)
		return nil
	}
	return &r
}

func (s *RunStore) put(ctx context.Context, key string, payload []byte) {
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
