package points

import (
	"context"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
)

type Store interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	History(ctx context.Context, userID int64, limit, offset int) ([]model.PointEntry, error)
}

// Service is the read side of the ledger. All writes happen inside the
// transactions that own them (bids, settlements, payments, signup).
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.store.Balance(ctx, userID)
}

func (s *Service) History(ctx context.Context, userID int64, limit, offset int) ([]model.PointEntry, error) {
	return s.store.History(ctx, userID, limit, offset)
}
