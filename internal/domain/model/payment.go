package model

import (
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
)

// Payment records a gateway transaction that tops up points. Confirmation
// is idempotent by (provider, provider_tx_id).
type Payment struct {
	ID           string              `json:"id"`
	UserID       int64               `json:"user_id"`
	Provider     string              `json:"provider"`
	ProviderTxID *string             `json:"provider_tx_id,omitempty"`
	Amount       int64               `json:"amount"`
	PointAmount  int64               `json:"point_amount"`
	Status       enums.PaymentStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}
