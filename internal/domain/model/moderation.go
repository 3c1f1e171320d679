package model

import (
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
)

type ModerationItem struct {
	ID             int64                  `json:"id"`
	PhotoID        int64                  `json:"photo_id"`
	SellerID       int64                  `json:"seller_id"`
	SafetyScore    float64                `json:"safety_score"`
	DetectedIssues []string               `json:"detected_issues"`
	Status         enums.ModerationStatus `json:"status"`
	ReviewerID     *int64                 `json:"reviewer_id,omitempty"`
	ReasonText     *string                `json:"reason_text,omitempty"`
	DecidedAt      *time.Time             `json:"decided_at,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}
