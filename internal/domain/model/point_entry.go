package model

import (
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
)

// PointEntry is one append-only row of the points ledger. The balance is
// the running sum computed server-side; clients never submit absolute values.
type PointEntry struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	Delta     int64             `json:"delta"`
	Reason    enums.PointReason `json:"reason"`
	RefID     *int64            `json:"ref_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
