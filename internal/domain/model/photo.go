package model

import (
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
)

// Photo is an auction lot. Prices are whole points; BuyNowPrice stays
// strictly above CurrentPrice for the entire time the lot is active.
type Photo struct {
	ID               int64                  `json:"id"`
	SellerID         int64                  `json:"seller_id"`
	CategoryID       int64                  `json:"category_id"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	ObjectKey        string                 `json:"-"`
	PreviewURL       string                 `json:"preview_url"`
	StartPrice       int64                  `json:"start_price"`
	CurrentPrice     int64                  `json:"current_price"`
	BuyNowPrice      int64                  `json:"buy_now_price"`
	StartAt          time.Time              `json:"start_at"`
	EndAt            time.Time              `json:"end_at"`
	Status           enums.PhotoStatus      `json:"status"`
	ModerationStatus enums.ModerationStatus `json:"moderation_status"`
	LikesCount       int                    `json:"likes_count"`
	ViewsCount       int                    `json:"views_count"`
	RelistCount      int                    `json:"relist_count"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}
