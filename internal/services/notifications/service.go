package notifications

import (
	"context"

	"go.uber.org/zap"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
)

type Store interface {
	Create(ctx context.Context, userID int64, kind enums.NotificationKind, payload map[string]any) (model.Notification, error)
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

// Pusher delivers a notification to live connections. Best effort only.
type Pusher interface {
	Push(userID int64, v any)
}

type Dependencies struct {
	Store  Store
	Pusher Pusher
	Logger *zap.Logger
}

type Service struct {
	store  Store
	pusher Pusher
	log    *zap.Logger
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:  deps.Store,
		pusher: deps.Pusher,
		log:    log,
	}
}

// Notify persists the notification and pushes it to live sockets.
// Callers treat notifications as fire and forget, so a storage failure
// is logged rather than propagated into the triggering transaction.
func (s *Service) Notify(ctx context.Context, userID int64, kind enums.NotificationKind, payload map[string]any) {
	n, err := s.store.Create(ctx, userID, kind, payload)
	if err != nil {
		s.log.Error("store notification",
			zap.Int64("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return
	}

	if s.pusher != nil {
		s.pusher.Push(userID, n)
	}
}

func (s *Service) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]model.Notification, error) {
	return s.store.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) error {
	return s.store.MarkAllRead(ctx, userID)
}
