package auction

import (
	"errors"
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/rules"
)

var (
	ErrNotActive          = errors.New("lot is not active")
	ErrEnded              = errors.New("auction already ended")
	ErrNotEnded           = errors.New("auction has not ended")
	ErrNotExpired         = errors.New("lot is not expired")
	ErrOwnLot             = errors.New("sellers cannot bid on their own lot")
	ErrNotSeller          = errors.New("only the seller may do this")
	ErrInsufficientPoints = errors.New("insufficient points")
)

type CreateLotParams struct {
	SellerID       int64
	CategoryID     int64
	Title          string
	Description    string
	ObjectKey      string
	StartPrice     int64
	BuyNowPrice    int64
	DurationDays   int
	SafetyScore    float64
	DetectedIssues []string
}

type PlaceBidParams struct {
	PhotoID      int64
	BidderID     int64
	Amount       int64
	MinIncrement int64
	Now          time.Time
}

type RelistParams struct {
	PhotoID      int64
	SellerID     int64
	StartPrice   int64
	BuyNowPrice  int64
	DurationDays int
	Now          time.Time
}

// SaleResult describes a completed sale, whether through buy-now or a
// winning bid at settlement.
type SaleResult struct {
	Photo        model.Photo
	BuyerID      int64
	Price        int64
	LoserUserIDs []int64
}

type PlaceBidResult struct {
	Outcome rules.BidOutcome
	Photo   model.Photo
	Bid     model.Bid
	// OutbidUserID is the previous leader who lost the top spot, zero
	// when the lot had no open bid.
	OutbidUserID int64
	// Sale is set when the amount reached buy-now and the lot sold.
	Sale *SaleResult
}

// SettleResult is the outcome of closing one ended lot. A zero
// WinnerUserID means the lot expired unsold.
type SettleResult struct {
	Photo        model.Photo
	WinnerUserID int64
	WinnerBidID  int64
	Price        int64
	LoserUserIDs []int64
}
