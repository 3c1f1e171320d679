package dto

import "github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"

type CreatePhotoRequest struct {
	CategoryID   int64  `json:"category_id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	ObjectKey    string `json:"object_key"`
	StartPrice   int64  `json:"start_price"`
	BuyNowPrice  int64  `json:"buy_now_price"`
	DurationDays int    `json:"duration_days,omitempty"`
}

// PhotoCardResponse is the lot as clients render it: the row plus a
// short-lived signed image URL and the countdown in whole seconds.
type PhotoCardResponse struct {
	model.Photo
	PhotoURL     string `json:"photo_url,omitempty"`
	RemainingSec int64  `json:"remaining_sec"`
}

type PhotoListResponse struct {
	Items []PhotoCardResponse `json:"items"`
}

type PlaceBidRequest struct {
	Amount int64 `json:"amount"`
}

type PlaceBidResponse struct {
	Outcome string      `json:"outcome"`
	Photo   model.Photo `json:"photo"`
	Bid     *model.Bid  `json:"bid,omitempty"`
}

type BuyNowResponse struct {
	Photo model.Photo `json:"photo"`
	Price int64       `json:"price"`
}

type RelistRequest struct {
	StartPrice   int64 `json:"start_price"`
	BuyNowPrice  int64 `json:"buy_now_price"`
	DurationDays int   `json:"duration_days"`
}

type BidListResponse struct {
	Items []model.Bid `json:"items"`
}

type UploadResponse struct {
	ObjectKey string `json:"object_key"`
	URL       string `json:"url"`
}

type LikeResponse struct {
	Liked bool `json:"liked"`
}
