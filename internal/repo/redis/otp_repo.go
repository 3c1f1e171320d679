package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
)

const (
	otpCodePrefix  = "otp:code:"
	otpTriesPrefix = "otp:tries:"
)

// OTPRepo keeps one pending SMS code per phone number. The code expires
// with its TTL; the attempt counter shares the same lifetime so a burst
// of wrong guesses cannot outlive the code itself.
type OTPRepo struct {
	client *goredis.Client
}

func NewOTPRepo(client *goredis.Client) *OTPRepo {
	return &OTPRepo{client: client}
}

func (r *OTPRepo) StoreCode(ctx context.Context, phone, code string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if phone == "" || code == "" || ttl <= 0 {
		return fmt.Errorf("invalid otp payload")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, otpCodeKey(phone), code, ttl)
	pipe.Set(ctx, otpTriesKey(phone), 0, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store otp code: %w", err)
	}

	return nil
}

// CheckCode compares the submitted code, counting each attempt against
// maxTries. A match consumes the code.
func (r *OTPRepo) CheckCode(ctx context.Context, phone, code string, maxTries int) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if phone == "" || code == "" {
		return authsvc.ErrCodeInvalid
	}

	stored, err := r.client.Get(ctx, otpCodeKey(phone)).Result()
	if err == goredis.Nil {
		return authsvc.ErrCodeInvalid
	}
	if err != nil {
		return fmt.Errorf("get otp code: %w", err)
	}

	tries, err := r.client.Incr(ctx, otpTriesKey(phone)).Result()
	if err != nil {
		return fmt.Errorf("count otp attempt: %w", err)
	}
	if maxTries > 0 && tries > int64(maxTries) {
		return authsvc.ErrCodeThrottled
	}

	if stored != code {
		return authsvc.ErrCodeInvalid
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, otpCodeKey(phone))
	pipe.Del(ctx, otpTriesKey(phone))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("consume otp code: %w", err)
	}

	return nil
}

func otpCodeKey(phone string) string {
	return otpCodePrefix + phone
}

func otpTriesKey(phone string) string {
	return otpTriesPrefix + phone
}
