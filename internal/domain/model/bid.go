package model

import (
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
)

// Bid is one offer on a photo. At most one bid per (photo, user) holds
// status=active; exactly one bid per photo resolves to won at settlement.
type Bid struct {
	ID        int64           `json:"id"`
	PhotoID   int64           `json:"photo_id"`
	UserID    int64           `json:"user_id"`
	Amount    int64           `json:"amount"`
	Status    enums.BidStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
