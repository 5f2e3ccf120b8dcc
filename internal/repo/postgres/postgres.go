package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hamed0406/portalcheck/internal/repo"
	"github.com/hamed0406/portalcheck/internal/report"
)

var _ repo.RunStore = (*Store)(nil)
var _ repo.RegressionStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "pgxpool.New")
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping")
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- RunStore ----

func (s *Store) Save(ctx context.Context, r *report.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs
		   (id, environment, base_url, started_at, finished_at,
		    passed, skipped, failed, infra, red, report)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		r.ID, r.Environment, r.BaseURL, r.StartedAt, r.FinishedAt,
		r.Passed, r.Skipped, r.Failed, r.Infra, r.Red(), payload,
	)
	return errors.Wrap(err, "insert run")
}

func (s *Store) ByID(ctx context.Context, id string) (*report.Report, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT report FROM runs WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "select run")
	}
	return decode(payload)
}

func (s *Store) Latest(ctx context.Context) (*report.Report, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT report FROM runs ORDER BY finished_at DESC, id DESC LIMIT 1`).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "select latest run")
	}
	return decode(payload)
}

func (s *Store) List(ctx context.Context, limit int) ([]repo.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, environment, base_url, started_at, finished_at,
		        passed, skipped, failed, infra, red
		   FROM runs
		  ORDER BY finished_at DESC, id DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	var out []repo.RunSummary
	for rows.Next() {
		var sum repo.RunSummary
		if err := rows.Scan(&sum.ID, &sum.Environment, &sum.BaseURL,
			&sum.StartedAt, &sum.FinishedAt,
			&sum.Passed, &sum.Skipped, &sum.Failed, &sum.Infra, &sum.Red); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func decode(payload []byte) (*report.Report, error) {
	var r report.Report
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, errors.Wrap(err, "decode stored report")
	}
	return &r, nil
}
