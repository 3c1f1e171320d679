package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
auction:
  min_increment: 10
  settle_interval: 15s
points:
  signup_bonus: 500
payment:
  provider: iamport
  points_per_won: 2
limits:
  bid_max_per_minute: 12
  feed_page_size: 25
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Auction.MinIncrement != 10 {
		t.Fatalf("unexpected min increment: %d", cfg.Auction.MinIncrement)
	}
	if cfg.Auction.SettleInterval != 15*time.Second {
		t.Fatalf("unexpected settle interval: %s", cfg.Auction.SettleInterval)
	}
	if cfg.Points.SignupBonus != 500 {
		t.Fatalf("unexpected signup bonus: %d", cfg.Points.SignupBonus)
	}
	if cfg.Payment.PointsPerWon != 2 {
		t.Fatalf("unexpected points per won: %d", cfg.Payment.PointsPerWon)
	}
	if cfg.Limits.BidMaxPerMinute != 12 {
		t.Fatalf("unexpected bid rate limit: %d", cfg.Limits.BidMaxPerMinute)
	}
	if cfg.Limits.FeedPageSize != 25 {
		t.Fatalf("unexpected feed page size: %d", cfg.Limits.FeedPageSize)
	}

	// Untouched sections keep their defaults.
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Auction.BidRetries != 3 {
		t.Fatalf("unexpected bid retries: %d", cfg.Auction.BidRetries)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Auction.MinIncrement != 1 {
		t.Fatalf("unexpected min increment: %d", cfg.Auction.MinIncrement)
	}
	if cfg.Auth.OTPMaxTries != 5 {
		t.Fatalf("unexpected otp tries: %d", cfg.Auth.OTPMaxTries)
	}
}

func TestEnvOverridesBeatYAML(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("AUCTION_MIN_INCREMENT", "50")
	t.Setenv("WORKER_INTERVAL", "1m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Auction.MinIncrement != 50 {
		t.Fatalf("env override not applied: %d", cfg.Auction.MinIncrement)
	}
	if cfg.Worker.Interval != time.Minute {
		t.Fatalf("env override not applied: %s", cfg.Worker.Interval)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "HTTP_ADDR", "LOG_LEVEL", "POSTGRES_DSN",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_USE_SSL",
		"JWT_SECRET", "JWT_ACCESS_TTL", "REFRESH_TTL", "OTP_TTL",
		"AUCTION_MIN_INCREMENT", "AUCTION_SETTLE_INTERVAL",
		"PAYMENT_MERCHANT_CODE", "PAYMENT_WEBHOOK_SECRET", "PAYMENT_ALLOW_DEV_TOPUPS",
		"WORKER_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}
