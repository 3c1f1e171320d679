package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
)

// PointRepo is the append-only points ledger. Rows are never updated or
// deleted; a balance is the sum of deltas.
type PointRepo struct {
	pool *pgxpool.Pool
}

func NewPointRepo(pool *pgxpool.Pool) *PointRepo {
	return &PointRepo{pool: pool}
}

const pointColumns = ` id, user_id, delta, reason, ref_id, created_at`

func (r *PointRepo) Append(ctx context.Context, tx pgx.Tx, userID, delta int64, reason enums.PointReason, refID *int64) (model.PointEntry, error) {
	if tx == nil {
		return model.PointEntry{}, fmt.Errorf("transaction is required")
	}
	if userID <= 0 || delta == 0 {
		return model.PointEntry{}, fmt.Errorf("invalid ledger entry")
	}

	row := tx.QueryRow(ctx, `
INSERT INTO point_entries (user_id, delta, reason, ref_id, created_at)
VALUES ($1, $2, $3, $4, NOW())
RETURNING`+pointColumns, userID, delta, string(reason), refID)

	entry, err := scanPointEntry(row)
	if err != nil {
		return model.PointEntry{}, fmt.Errorf("append ledger entry: %w", err)
	}
	return entry, nil
}

// BalanceTx sums the ledger inside the caller's transaction. Combined with
// the user row lock it gives a consistent read for debit checks.
func (r *PointRepo) BalanceTx(ctx context.Context, tx pgx.Tx, userID int64) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}

	var balance int64
	err := tx.QueryRow(ctx, `
SELECT COALESCE(SUM(delta), 0) FROM point_entries WHERE user_id = $1
`, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("sum ledger: %w", err)
	}
	return balance, nil
}

func (r *PointRepo) Balance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(delta), 0) FROM point_entries WHERE user_id = $1
`, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("sum ledger: %w", err)
	}
	return balance, nil
}

func (r *PointRepo) History(ctx context.Context, userID int64, limit, offset int) ([]model.PointEntry, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+pointColumns+`
FROM point_entries
WHERE user_id = $1
ORDER BY id DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.PointEntry, 0, limit)
	for rows.Next() {
		entry, err := scanPointEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", rows.Err())
	}

	return entries, nil
}

func scanPointEntry(row rowScanner) (model.PointEntry, error) {
	var (
		entry  model.PointEntry
		reason string
	)
	if err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Delta,
		&reason,
		&entry.RefID,
		&entry.CreatedAt,
	); err != nil {
		return model.PointEntry{}, err
	}
	entry.Reason = enums.PointReason(reason)
	return entry, nil
}
