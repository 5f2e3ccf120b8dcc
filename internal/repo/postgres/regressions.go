package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/portalcheck/internal/repo"
)

func (s *Store) Get(ctx context.Context, check string) (*repo.RegressionRecord, error) {
	const q = `SELECT last_red, last_sent_at FROM regressions WHERE check_name=$1`
	var rec repo.RegressionRecord
	rec.Check = check
	var lastSent *time.Time
	err := s.pool.QueryRow(ctx, q, check).Scan(&rec.LastRed, &lastSent)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	rec.LastSentAt = lastSent
	return &rec, nil
}

func (s *Store) Set(ctx context.Context, check string, red bool, sentAt time.Time) error {
	const q = `
		INSERT INTO regressions (check_name, last_red, last_sent_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (check_name)
		DO UPDATE SET last_red=EXCLUDED.last_red,
		              last_sent_at=COALESCE(EXCLUDED.last_sent_at, regressions.last_sent_at)
	`
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	_, err := s.pool.Exec(ctx, q, check, red, ts)
	return err
}
