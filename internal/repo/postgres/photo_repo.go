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

var ErrPhotoNotFound = errors.New("photo not found")

type PhotoRepo struct {
	pool *pgxpool.Pool
}

func NewPhotoRepo(pool *pgxpool.Pool) *PhotoRepo {
	return &PhotoRepo{pool: pool}
}

const photoColumns = `
	id, seller_id, category_id, title, description, object_key,
	start_price, current_price, buy_now_price, start_at, end_at,
	status, moderation_status, likes_count, views_count, relist_count,
	created_at, updated_at`

type CreatePhotoParams struct {
	SellerID    int64
	CategoryID  int64
	Title       string
	Description string
	ObjectKey   string
	StartPrice  int64
	BuyNowPrice int64
	StartAt     time.Time
	EndAt       time.Time
}

func (r *PhotoRepo) Create(ctx context.Context, tx pgx.Tx, p CreatePhotoParams) (model.Photo, error) {
	if tx == nil {
		return model.Photo{}, fmt.Errorf("transaction is required")
	}
	if p.SellerID <= 0 || p.StartPrice <= 0 || p.BuyNowPrice <= p.StartPrice {
		return model.Photo{}, fmt.Errorf("invalid photo payload")
	}

	row := tx.QueryRow(ctx, `
INSERT INTO photos (
	seller_id, category_id, title, description, object_key,
	start_price, current_price, buy_now_price, start_at, end_at,
	status, moderation_status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8, $9, 'pending', 'pending', NOW(), NOW())
RETURNING`+photoColumns,
		p.SellerID, p.CategoryID, p.Title, p.Description, p.ObjectKey,
		p.StartPrice, p.BuyNowPrice, p.StartAt, p.EndAt)

	photo, err := scanPhoto(row)
	if err != nil {
		return model.Photo{}, fmt.Errorf("insert photo: %w", err)
	}
	return photo, nil
}

func (r *PhotoRepo) GetByID(ctx context.Context, photoID int64) (model.Photo, error) {
	if photoID <= 0 {
		return model.Photo{}, fmt.Errorf("invalid photo id")
	}

	row := r.pool.QueryRow(ctx, `SELECT`+photoColumns+` FROM photos WHERE id = $1`, photoID)
	photo, err := scanPhoto(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Photo{}, ErrPhotoNotFound
		}
		return model.Photo{}, fmt.Errorf("get photo: %w", err)
	}
	return photo, nil
}

// GetForUpdate locks the photo row for the duration of the transaction.
// Every bid, buy-now, relist and settlement passes through this lock, so
// writes to one lot are serialized.
func (r *PhotoRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, photoID int64) (model.Photo, error) {
	if tx == nil {
		return model.Photo{}, fmt.Errorf("transaction is required")
	}
	if photoID <= 0 {
		return model.Photo{}, fmt.Errorf("invalid photo id")
	}

	row := tx.QueryRow(ctx, `SELECT`+photoColumns+` FROM photos WHERE id = $1 FOR UPDATE`, photoID)
	photo, err := scanPhoto(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Photo{}, ErrPhotoNotFound
		}
		return model.Photo{}, fmt.Errorf("lock photo: %w", err)
	}
	return photo, nil
}

func (r *PhotoRepo) UpdateCurrentPrice(ctx context.Context, tx pgx.Tx, photoID, price int64) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	tag, err := tx.Exec(ctx, `
UPDATE photos SET current_price = $2, updated_at = NOW()
WHERE id = $1 AND status = 'active'
`, photoID, price)
	if err != nil {
		return fmt.Errorf("update current price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func (r *PhotoRepo) SetStatus(ctx context.Context, tx pgx.Tx, photoID int64, status enums.PhotoStatus) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if !status.Valid() {
		return fmt.Errorf("invalid photo status %q", status)
	}

	tag, err := tx.Exec(ctx, `
UPDATE photos SET status = $2, updated_at = NOW()
WHERE id = $1
`, photoID, string(status))
	if err != nil {
		return fmt.Errorf("set photo status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

// ApplyModeration flips both status columns in one statement when a
// moderation decision lands.
func (r *PhotoRepo) ApplyModeration(ctx context.Context, tx pgx.Tx, photoID int64, moderation enums.ModerationStatus, status enums.PhotoStatus) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	tag, err := tx.Exec(ctx, `
UPDATE photos SET moderation_status = $2, status = $3, updated_at = NOW()
WHERE id = $1
`, photoID, string(moderation), string(status))
	if err != nil {
		return fmt.Errorf("apply moderation to photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func (r *PhotoRepo) Relist(ctx context.Context, tx pgx.Tx, photoID, startPrice, buyNowPrice int64, startAt, endAt time.Time) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	tag, err := tx.Exec(ctx, `
UPDATE photos SET
	start_price = $2,
	current_price = $2,
	buy_now_price = $3,
	start_at = $4,
	end_at = $5,
	status = 'active',
	relist_count = relist_count + 1,
	updated_at = NOW()
WHERE id = $1 AND status = 'expired'
`, photoID, startPrice, buyNowPrice, startAt, endAt)
	if err != nil {
		return fmt.Errorf("relist photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

// ListDueForSettle returns ids of active lots whose timer elapsed. The
// worker settles each one under its own row lock.
func (r *PhotoRepo) ListDueForSettle(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
SELECT id FROM photos
WHERE status = 'active' AND end_at <= $1
ORDER BY end_at ASC
LIMIT $2
`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due photos: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due photo id: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate due photos: %w", rows.Err())
	}

	return ids, nil
}

func (r *PhotoRepo) IncrementViews(ctx context.Context, photoID int64) error {
	if photoID <= 0 {
		return fmt.Errorf("invalid photo id")
	}
	if _, err := r.pool.Exec(ctx, `
UPDATE photos SET views_count = views_count + 1 WHERE id = $1
`, photoID); err != nil {
		return fmt.Errorf("increment photo views: %w", err)
	}
	return nil
}

// ToggleLike flips the viewer's like and keeps likes_count in step inside
// one transaction. Returns the resulting liked state.
func (r *PhotoRepo) ToggleLike(ctx context.Context, photoID, userID int64) (bool, error) {
	if photoID <= 0 || userID <= 0 {
		return false, fmt.Errorf("invalid like payload")
	}

	var liked bool
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
DELETE FROM photo_likes WHERE photo_id = $1 AND user_id = $2
`, photoID, userID)
		if err != nil {
			return fmt.Errorf("delete photo like: %w", err)
		}

		if tag.RowsAffected() > 0 {
			liked = false
			if _, err := tx.Exec(ctx, `
UPDATE photos SET likes_count = GREATEST(likes_count - 1, 0) WHERE id = $1
`, photoID); err != nil {
				return fmt.Errorf("decrement photo likes: %w", err)
			}
			return nil
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO photo_likes (photo_id, user_id, created_at) VALUES ($1, $2, NOW())
`, photoID, userID); err != nil {
			return fmt.Errorf("insert photo like: %w", err)
		}
		liked = true
		if _, err := tx.Exec(ctx, `
UPDATE photos SET likes_count = likes_count + 1 WHERE id = $1
`, photoID); err != nil {
			return fmt.Errorf("increment photo likes: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return liked, nil
}

type FeedQuery struct {
	CategoryID int64
	SellerID   int64
	Status     enums.PhotoStatus
	Search     string
	Sort       string
	Limit      int
	Offset     int
}

// ListFeed pages through lots. Sort accepts newest, ending_soon,
// price_asc, price_desc and popular; anything else falls back to newest.
func (r *PhotoRepo) ListFeed(ctx context.Context, q FeedQuery) ([]model.Photo, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	status := q.Status
	if status == "" {
		status = enums.PhotoStatusActive
	}

	sql := `SELECT` + photoColumns + ` FROM photos WHERE status = $1`
	args := []any{string(status)}

	if q.CategoryID > 0 {
		args = append(args, q.CategoryID)
		sql += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if q.SellerID > 0 {
		args = append(args, q.SellerID)
		sql += fmt.Sprintf(" AND seller_id = $%d", len(args))
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		sql += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}

	switch q.Sort {
	case "ending_soon":
		sql += " ORDER BY end_at ASC, id ASC"
	case "price_asc":
		sql += " ORDER BY current_price ASC, id DESC"
	case "price_desc":
		sql += " ORDER BY current_price DESC, id DESC"
	case "popular":
		sql += " ORDER BY likes_count DESC, views_count DESC, id DESC"
	default:
		sql += " ORDER BY created_at DESC, id DESC"
	}

	args = append(args, q.Limit)
	sql += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, q.Offset)
	sql += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	defer rows.Close()

	photos := make([]model.Photo, 0, q.Limit)
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed photo: %w", err)
		}
		photos = append(photos, photo)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate feed: %w", rows.Err())
	}

	return photos, nil
}

// RejectedMedia is a photo whose lot was rejected but whose object is
// still sitting in storage.
type RejectedMedia struct {
	PhotoID   int64
	ObjectKey string
}

func (r *PhotoRepo) ListRejectedMedia(ctx context.Context, cutoff time.Time, limit int) ([]RejectedMedia, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, object_key
FROM photos
WHERE moderation_status = 'rejected'
  AND object_key <> ''
  AND updated_at < $1
ORDER BY updated_at
LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list rejected media: %w", err)
	}
	defer rows.Close()

	var out []RejectedMedia
	for rows.Next() {
		var m RejectedMedia
		if err := rows.Scan(&m.PhotoID, &m.ObjectKey); err != nil {
			return nil, fmt.Errorf("scan rejected media: %w", err)
		}
		out = append(out, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate rejected media: %w", rows.Err())
	}
	return out, nil
}

func (r *PhotoRepo) ClearObjectKey(ctx context.Context, photoID int64) error {
	if photoID <= 0 {
		return fmt.Errorf("invalid photo id")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE photos SET object_key = '', updated_at = NOW() WHERE id = $1`, photoID)
	if err != nil {
		return fmt.Errorf("clear object key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (model.Photo, error) {
	var (
		photo      model.Photo
		status     string
		moderation string
	)
	if err := row.Scan(
		&photo.ID,
		&photo.SellerID,
		&photo.CategoryID,
		&photo.Title,
		&photo.Description,
		&photo.ObjectKey,
		&photo.StartPrice,
		&photo.CurrentPrice,
		&photo.BuyNowPrice,
		&photo.StartAt,
		&photo.EndAt,
		&status,
		&moderation,
		&photo.LikesCount,
		&photo.ViewsCount,
		&photo.RelistCount,
		&photo.CreatedAt,
		&photo.UpdatedAt,
	); err != nil {
		return model.Photo{}, err
	}
	photo.Status = enums.PhotoStatus(status)
	photo.ModerationStatus = enums.ModerationStatus(moderation)
	return photo, nil
}
