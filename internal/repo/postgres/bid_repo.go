package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
)

var ErrBidNotFound = errors.New("bid not found")

type BidRepo struct {
	pool *pgxpool.Pool
}

func NewBidRepo(pool *pgxpool.Pool) *BidRepo {
	return &BidRepo{pool: pool}
}

const bidColumns = ` id, photo_id, user_id, amount, status, created_at, updated_at`

func (r *BidRepo) Create(ctx context.Context, tx pgx.Tx, photoID, userID, amount int64) (model.Bid, error) {
	if tx == nil {
		return model.Bid{}, fmt.Errorf("transaction is required")
	}
	if photoID <= 0 || userID <= 0 || amount <= 0 {
		return model.Bid{}, fmt.Errorf("invalid bid payload")
	}

	row := tx.QueryRow(ctx, `
INSERT INTO bids (photo_id, user_id, amount, status, created_at, updated_at)
VALUES ($1, $2, $3, 'active', NOW(), NOW())
RETURNING`+bidColumns, photoID, userID, amount)

	bid, err := scanBid(row)
	if err != nil {
		return model.Bid{}, fmt.Errorf("insert bid: %w", err)
	}
	return bid, nil
}

// HighestActive returns the current leading bid for the lot, if any.
func (r *BidRepo) HighestActive(ctx context.Context, tx pgx.Tx, photoID int64) (model.Bid, error) {
	if tx == nil {
		return model.Bid{}, fmt.Errorf("transaction is required")
	}

	row := tx.QueryRow(ctx, `
SELECT`+bidColumns+`
FROM bids
WHERE photo_id = $1 AND status = 'active'
ORDER BY amount DESC, id ASC
LIMIT 1
`, photoID)

	bid, err := scanBid(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Bid{}, ErrBidNotFound
		}
		return model.Bid{}, fmt.Errorf("get highest bid: %w", err)
	}
	return bid, nil
}

// ActiveByUser returns the user's open bid on the lot, if one exists.
// At most one row can match because SetStatus retires the previous bid
// before a new one is inserted.
func (r *BidRepo) ActiveByUser(ctx context.Context, tx pgx.Tx, photoID, userID int64) (model.Bid, error) {
	if tx == nil {
		return model.Bid{}, fmt.Errorf("transaction is required")
	}

	row := tx.QueryRow(ctx, `
SELECT`+bidColumns+`
FROM bids
WHERE photo_id = $1 AND user_id = $2 AND status = 'active'
LIMIT 1
`, photoID, userID)

	bid, err := scanBid(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Bid{}, ErrBidNotFound
		}
		return model.Bid{}, fmt.Errorf("get user bid: %w", err)
	}
	return bid, nil
}

func (r *BidRepo) SetStatus(ctx context.Context, tx pgx.Tx, bidID int64, status enums.BidStatus) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	tag, err := tx.Exec(ctx, `
UPDATE bids SET status = $2, updated_at = NOW() WHERE id = $1
`, bidID, string(status))
	if err != nil {
		return fmt.Errorf("set bid status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBidNotFound
	}
	return nil
}

// Settle promotes the winning bid and marks every other open bid lost,
// returning the ids of the losers so their point holds can be released.
func (r *BidRepo) Settle(ctx context.Context, tx pgx.Tx, photoID, winnerBidID int64) ([]model.Bid, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
UPDATE bids SET status = 'won', updated_at = NOW()
WHERE id = $1 AND photo_id = $2
`, winnerBidID, photoID); err != nil {
		return nil, fmt.Errorf("mark winning bid: %w", err)
	}

	rows, err := tx.Query(ctx, `
UPDATE bids SET status = 'lost', updated_at = NOW()
WHERE photo_id = $1 AND id != $2 AND status IN ('active', 'outbid')
RETURNING`+bidColumns, photoID, winnerBidID)
	if err != nil {
		return nil, fmt.Errorf("mark losing bids: %w", err)
	}
	defer rows.Close()

	losers := make([]model.Bid, 0, 4)
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan losing bid: %w", err)
		}
		losers = append(losers, bid)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate losing bids: %w", rows.Err())
	}

	return losers, nil
}

// CloseAll marks every remaining open bid lost. Used when a lot is sold
// through buy-now.
func (r *BidRepo) CloseAll(ctx context.Context, tx pgx.Tx, photoID int64) ([]model.Bid, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}

	rows, err := tx.Query(ctx, `
UPDATE bids SET status = 'lost', updated_at = NOW()
WHERE photo_id = $1 AND status IN ('active', 'outbid')
RETURNING`+bidColumns, photoID)
	if err != nil {
		return nil, fmt.Errorf("close bids: %w", err)
	}
	defer rows.Close()

	closed := make([]model.Bid, 0, 4)
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan closed bid: %w", err)
		}
		closed = append(closed, bid)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate closed bids: %w", rows.Err())
	}

	return closed, nil
}

func (r *BidRepo) ListByPhoto(ctx context.Context, photoID int64, limit int) ([]model.Bid, error) {
	if photoID <= 0 {
		return nil, fmt.Errorf("invalid photo id")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+bidColumns+`
FROM bids
WHERE photo_id = $1
ORDER BY amount DESC, id ASC
LIMIT $2
`, photoID, limit)
	if err != nil {
		return nil, fmt.Errorf("list photo bids: %w", err)
	}
	defer rows.Close()

	bids := make([]model.Bid, 0, limit)
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo bid: %w", err)
		}
		bids = append(bids, bid)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate photo bids: %w", rows.Err())
	}

	return bids, nil
}

func (r *BidRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Bid, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+bidColumns+`
FROM bids
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list user bids: %w", err)
	}
	defer rows.Close()

	bids := make([]model.Bid, 0, limit)
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user bid: %w", err)
		}
		bids = append(bids, bid)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate user bids: %w", rows.Err())
	}

	return bids, nil
}

func scanBid(row rowScanner) (model.Bid, error) {
	var (
		bid    model.Bid
		status string
	)
	if err := row.Scan(
		&bid.ID,
		&bid.PhotoID,
		&bid.UserID,
		&bid.Amount,
		&status,
		&bid.CreatedAt,
		&bid.UpdatedAt,
	); err != nil {
		return model.Bid{}, err
	}
	bid.Status = enums.BidStatus(status)
	return bid, nil
}
