package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

const notificationColumns = ` id, user_id, kind, payload, read, created_at`

func (r *NotificationRepo) Create(ctx context.Context, userID int64, kind enums.NotificationKind, payload map[string]any) (model.Notification, error) {
	if userID <= 0 || kind == "" {
		return model.Notification{}, fmt.Errorf("invalid notification payload")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return model.Notification{}, fmt.Errorf("marshal notification payload: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO notifications (user_id, kind, payload, read, created_at)
VALUES ($1, $2, $3, FALSE, NOW())
RETURNING`+notificationColumns, userID, string(kind), raw)

	n, err := scanNotification(row)
	if err != nil {
		return model.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]model.Notification, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		q += ` AND NOT read`
	}
	q += ` ORDER BY id DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]model.Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate notifications: %w", rows.Err())
	}

	return items, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read
`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID, notificationID int64) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `
UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read
`, userID)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func scanNotification(row rowScanner) (model.Notification, error) {
	var (
		n    model.Notification
		kind string
		raw  []byte
	)
	if err := row.Scan(
		&n.ID,
		&n.UserID,
		&kind,
		&raw,
		&n.Read,
		&n.CreatedAt,
	); err != nil {
		return model.Notification{}, err
	}
	n.Kind = enums.NotificationKind(kind)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &n.Payload); err != nil {
			return model.Notification{}, fmt.Errorf("unmarshal notification payload: %w", err)
		}
	}
	return n, nil
}
