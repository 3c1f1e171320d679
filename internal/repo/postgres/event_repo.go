package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
)

// EventRepo stores client telemetry batches.
type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// InsertBatch writes the whole batch in one transaction so a failed
// insert drops the batch instead of half of it.
func (r *EventRepo) InsertBatch(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		for _, ev := range events {
			if ev.Name == "" {
				return fmt.Errorf("event name is required")
			}

			raw, err := json.Marshal(ev.Props)
			if err != nil {
				return fmt.Errorf("marshal event props: %w", err)
			}

			createdAt := ev.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now()
			}

			if _, err := tx.Exec(ctx, `
INSERT INTO events (user_id, name, props, created_at)
VALUES ($1, $2, $3, $4)
`, ev.UserID, ev.Name, raw, createdAt); err != nil {
				return fmt.Errorf("insert event: %w", err)
			}
		}
		return nil
	})
}

// CountSince is a small aggregate for the admin dashboard.
func (r *EventRepo) CountSince(ctx context.Context, name string, since time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM events WHERE name = $1 AND created_at >= $2
`, name, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
