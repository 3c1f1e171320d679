package model

import (
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
)

type Notification struct {
	ID        int64                  `json:"id"`
	UserID    int64                  `json:"user_id"`
	Kind      enums.NotificationKind `json:"kind"`
	Payload   map[string]any         `json:"payload,omitempty"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}
