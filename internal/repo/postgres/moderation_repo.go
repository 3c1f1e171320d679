package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
)

var (
	ErrModerationNotFound = errors.New("moderation item not found")
	ErrModerationDecided  = errors.New("moderation item already decided")
)

type ModerationRepo struct {
	pool   *pgxpool.Pool
	photos *PhotoRepo
}

func NewModerationRepo(pool *pgxpool.Pool) *ModerationRepo {
	return &ModerationRepo{pool: pool, photos: NewPhotoRepo(pool)}
}

const moderationColumns = ` id, photo_id, seller_id, safety_score, detected_issues, status, reviewer_id, reason_text, decided_at, created_at, updated_at`

func (r *ModerationRepo) Enqueue(ctx context.Context, tx pgx.Tx, photoID, sellerID int64, score float64, issues []string) (model.ModerationItem, error) {
	if tx == nil {
		return model.ModerationItem{}, fmt.Errorf("transaction is required")
	}
	if issues == nil {
		issues = []string{}
	}

	row := tx.QueryRow(ctx, `
INSERT INTO moderation_queue (photo_id, seller_id, safety_score, detected_issues, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'pending', NOW(), NOW())
RETURNING`+moderationColumns, photoID, sellerID, score, issues)

	item, err := scanModerationItem(row)
	if err != nil {
		return model.ModerationItem{}, fmt.Errorf("enqueue moderation item: %w", err)
	}
	return item, nil
}

func (r *ModerationRepo) GetByID(ctx context.Context, id int64) (model.ModerationItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+moderationColumns+` FROM moderation_queue WHERE id = $1`, id)

	item, err := scanModerationItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ModerationItem{}, ErrModerationNotFound
		}
		return model.ModerationItem{}, fmt.Errorf("get moderation item: %w", err)
	}
	return item, nil
}

// GetForUpdate locks the queue row so two reviewers cannot decide the
// same item concurrently.
func (r *ModerationRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (model.ModerationItem, error) {
	if tx == nil {
		return model.ModerationItem{}, fmt.Errorf("transaction is required")
	}

	row := tx.QueryRow(ctx, `SELECT`+moderationColumns+` FROM moderation_queue WHERE id = $1 FOR UPDATE`, id)

	item, err := scanModerationItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ModerationItem{}, ErrModerationNotFound
		}
		return model.ModerationItem{}, fmt.Errorf("lock moderation item: %w", err)
	}
	return item, nil
}

func (r *ModerationRepo) Decide(ctx context.Context, tx pgx.Tx, id int64, status enums.ModerationStatus, reviewerID *int64, reason *string, decidedAt time.Time) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	tag, err := tx.Exec(ctx, `
UPDATE moderation_queue
SET status = $2, reviewer_id = $3, reason_text = $4, decided_at = $5, updated_at = NOW()
WHERE id = $1
`, id, string(status), reviewerID, reason, decidedAt)
	if err != nil {
		return fmt.Errorf("decide moderation item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrModerationNotFound
	}
	return nil
}

// ApplyDecision writes the decision to the queue item and the photo in
// one transaction. Approving activates the lot; rejecting deactivates
// it. Terminal decisions are final.
func (r *ModerationRepo) ApplyDecision(ctx context.Context, itemID int64, status enums.ModerationStatus, reviewerID *int64, reason *string, decidedAt time.Time) (model.ModerationItem, error) {
	var item model.ModerationItem
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		locked, err := r.GetForUpdate(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if locked.Status == enums.ModerationStatusApproved || locked.Status == enums.ModerationStatusRejected {
			return ErrModerationDecided
		}

		if err := r.Decide(ctx, tx, itemID, status, reviewerID, reason, decidedAt); err != nil {
			return err
		}

		switch status {
		case enums.ModerationStatusApproved:
			if err := r.photos.ApplyModeration(ctx, tx, locked.PhotoID, status, enums.PhotoStatusActive); err != nil {
				return err
			}
		case enums.ModerationStatusRejected:
			if err := r.photos.ApplyModeration(ctx, tx, locked.PhotoID, status, enums.PhotoStatusInactive); err != nil {
				return err
			}
		default:
			if _, err := tx.Exec(ctx, `
UPDATE photos SET moderation_status = $2, updated_at = NOW()
WHERE id = $1
`, locked.PhotoID, string(status)); err != nil {
				return fmt.Errorf("apply decision to photo: %w", err)
			}
		}

		locked.Status = status
		locked.ReviewerID = reviewerID
		locked.ReasonText = reason
		locked.DecidedAt = &decidedAt
		item = locked
		return nil
	})
	if err != nil {
		return model.ModerationItem{}, err
	}
	return item, nil
}

func (r *ModerationRepo) ListByStatus(ctx context.Context, status enums.ModerationStatus, limit, offset int) ([]model.ModerationItem, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+moderationColumns+`
FROM moderation_queue
WHERE status = $1
ORDER BY created_at ASC, id ASC
LIMIT $2 OFFSET $3
`, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list moderation items: %w", err)
	}
	defer rows.Close()

	items := make([]model.ModerationItem, 0, limit)
	for rows.Next() {
		item, err := scanModerationItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan moderation item: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate moderation items: %w", rows.Err())
	}

	return items, nil
}

func (r *ModerationRepo) CountByStatus(ctx context.Context, status enums.ModerationStatus) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM moderation_queue WHERE status = $1
`, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count moderation items: %w", err)
	}
	return n, nil
}

func scanModerationItem(row rowScanner) (model.ModerationItem, error) {
	var (
		item   model.ModerationItem
		status string
	)
	if err := row.Scan(
		&item.ID,
		&item.PhotoID,
		&item.SellerID,
		&item.SafetyScore,
		&item.DetectedIssues,
		&status,
		&item.ReviewerID,
		&item.ReasonText,
		&item.DecidedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return model.ModerationItem{}, err
	}
	item.Status = enums.ModerationStatus(status)
	return item, nil
}
