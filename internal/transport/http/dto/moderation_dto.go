package dto

import "github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"

type ModerationQueueItemResponse struct {
	Item     model.ModerationItem `json:"item"`
	Severity string               `json:"severity"`
	PhotoURL string               `json:"photo_url,omitempty"`
}

type ModerationQueueResponse struct {
	Items []ModerationQueueItemResponse `json:"items"`
	Total int64                         `json:"total"`
}

type ModerationRejectRequest struct {
	ReasonCode string `json:"reason_code"`
	ReasonText string `json:"reason_text,omitempty"`
}

type ModerationDecisionResponse struct {
	ItemID int64  `json:"item_id"`
	Status string `json:"status"`
}
