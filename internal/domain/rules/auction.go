package rules

import (
	"errors"
	"time"
)

// DefaultMinIncrement is the smallest amount a new bid must add on top of
// the current price when the deployment does not override it.
const DefaultMinIncrement = 1

// RelistDurationsDays are the only durations a seller may pick when
// relisting an expired lot.
var RelistDurationsDays = []int{3, 5, 7, 10, 14}

var (
	ErrBidTooLow         = errors.New("bid does not exceed current price")
	ErrBidBelowIncrement = errors.New("bid below minimum increment")
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
	ErrInvalidDuration   = errors.New("unsupported auction duration")
	ErrBuyNowNotAbove    = errors.New("buy-now price must exceed start price")
)

// BidOutcome is the decision for a single bid attempt against the lot's
// current state.
type BidOutcome int

const (
	BidRejected BidOutcome = iota
	BidAccepted
	// BidIsBuyNow means the amount reached the buy-now price; the lot is
	// sold immediately instead of recording an open bid.
	BidIsBuyNow
)

// DecideBid applies the acceptance rule: a bid must exceed the current
// price by at least minIncrement, and an amount at or above buy-now is
// treated as an implicit buy-now.
func DecideBid(amount, currentPrice, buyNowPrice, minIncrement int64) (BidOutcome, error) {
	if minIncrement <= 0 {
		minIncrement = DefaultMinIncrement
	}
	if amount <= 0 {
		return BidRejected, ErrInvalidAmount
	}
	if amount >= buyNowPrice {
		return BidIsBuyNow, nil
	}
	if amount <= currentPrice {
		return BidRejected, ErrBidTooLow
	}
	if amount < currentPrice+minIncrement {
		return BidRejected, ErrBidBelowIncrement
	}
	return BidAccepted, nil
}

// ValidateRelist checks the terms a seller supplies when re-opening an
// expired, unsold lot.
func ValidateRelist(startPrice, buyNowPrice int64, durationDays int) error {
	if startPrice <= 0 || buyNowPrice <= 0 {
		return ErrInvalidAmount
	}
	if buyNowPrice <= startPrice {
		return ErrBuyNowNotAbove
	}
	if !validDuration(durationDays) {
		return ErrInvalidDuration
	}
	return nil
}

func validDuration(days int) bool {
	for _, d := range RelistDurationsDays {
		if d == days {
			return true
		}
	}
	return false
}

// Remaining recomputes the countdown from the absolute end timestamp.
// Deriving from endAt on every call means repeated recomputation never
// drifts; the result is zero once now reaches endAt.
func Remaining(endAt, now time.Time) time.Duration {
	d := endAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Ended reports whether the auction timer has elapsed.
func Ended(endAt, now time.Time) bool {
	return !now.Before(endAt)
}

// RelistWindow computes the new start/end pair for an accepted relist.
func RelistWindow(now time.Time, durationDays int) (time.Time, time.Time) {
	start := now.UTC()
	return start, start.Add(time.Duration(durationDays) * 24 * time.Hour)
}
