package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limiter throttles the two abuse-prone actions: bid submission and OTP
// requests. Counters live in redis fixed windows keyed by user or phone.
type Limiter struct {
	store        WindowStore
	bidPerMinute int
	otpPerHour   int
}

func NewLimiter(store WindowStore, bidPerMinute, otpPerHour int) *Limiter {
	if bidPerMinute < 0 {
		bidPerMinute = 0
	}
	if otpPerHour < 0 {
		otpPerHour = 0
	}

	return &Limiter{
		store:        store,
		bidPerMinute: bidPerMinute,
		otpPerHour:   otpPerHour,
	}
}

// AllowBid returns (retryAfterSec, allowed). A zero limit disables the
// check entirely.
func (l *Limiter) AllowBid(ctx context.Context, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.bidPerMinute == 0 {
		return 0, true, nil
	}
	return l.allow(ctx, bidKey(userID), time.Minute, l.bidPerMinute)
}

func (l *Limiter) AllowOTP(ctx context.Context, phone string) (int64, bool, error) {
	if phone == "" {
		return 0, false, fmt.Errorf("phone is required")
	}
	if l.otpPerHour == 0 {
		return 0, true, nil
	}
	return l.allow(ctx, otpKey(phone), time.Hour, l.otpPerHour)
}

func (l *Limiter) allow(ctx context.Context, key string, window time.Duration, limit int) (int64, bool, error) {
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	count, ttl, err := l.store.IncrementWindow(ctx, key, window)
	if err != nil {
		return 0, false, err
	}
	if count > int64(limit) {
		return ceilSeconds(ttl), false, nil
	}
	return 0, true, nil
}

// RetryAfterBid peeks at the bid window without consuming an attempt.
func (l *Limiter) RetryAfterBid(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}
	if l.bidPerMinute == 0 {
		return 0, nil
	}

	count, ttl, err := l.store.WindowState(ctx, bidKey(userID))
	if err != nil {
		return 0, err
	}
	if count >= int64(l.bidPerMinute) {
		return ceilSeconds(ttl), nil
	}
	return 0, nil
}

func bidKey(userID int64) string {
	return "rate:bid:min:" + strconv.FormatInt(userID, 10)
}

func otpKey(phone string) string {
	return "rate:otp:hour:" + phone
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
