package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/rules"
	auctionsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auction"
)

// The tests below run against a real database and are skipped unless
// TEST_POSTGRES_DSN is set. Each test run works in its own schema so
// parallel runs cannot see each other's rows.

var testDDL = []string{
	`CREATE TABLE users (
		id            BIGSERIAL PRIMARY KEY,
		email         TEXT,
		phone         TEXT,
		password_hash TEXT,
		nickname      TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'USER',
		banned        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE photos (
		id                BIGSERIAL PRIMARY KEY,
		seller_id         BIGINT NOT NULL,
		category_id       BIGINT NOT NULL DEFAULT 0,
		title             TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		object_key        TEXT NOT NULL DEFAULT '',
		start_price       BIGINT NOT NULL,
		current_price     BIGINT NOT NULL,
		buy_now_price     BIGINT NOT NULL,
		start_at          TIMESTAMPTZ NOT NULL,
		end_at            TIMESTAMPTZ NOT NULL,
		status            TEXT NOT NULL,
		moderation_status TEXT NOT NULL,
		likes_count       BIGINT NOT NULL DEFAULT 0,
		views_count       BIGINT NOT NULL DEFAULT 0,
		relist_count      BIGINT NOT NULL DEFAULT 0,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE bids (
		id         BIGSERIAL PRIMARY KEY,
		photo_id   BIGINT NOT NULL,
		user_id    BIGINT NOT NULL,
		amount     BIGINT NOT NULL,
		status     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE point_entries (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL,
		delta      BIGINT NOT NULL,
		reason     TEXT NOT NULL,
		ref_id     BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE moderation_queue (
		id              BIGSERIAL PRIMARY KEY,
		photo_id        BIGINT NOT NULL,
		seller_id       BIGINT NOT NULL,
		safety_score    DOUBLE PRECISION NOT NULL,
		detected_issues TEXT[] NOT NULL DEFAULT '{}',
		status          TEXT NOT NULL,
		reviewer_id     BIGINT,
		reason_text     TEXT,
		decided_at      TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	schema := fmt.Sprintf("auction_test_%d", time.Now().UnixNano())

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		pool.Close()
	})

	if _, err := pool.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	for _, ddl := range testDDL {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			t.Fatalf("apply ddl: %v", err)
		}
	}
	return pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool, nickname string, balance int64) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(), `
INSERT INTO users (nickname) VALUES ($1) RETURNING id
`, nickname).Scan(&id)
	if err != nil {
		t.Fatalf("seed user %s: %v", nickname, err)
	}

	if balance != 0 {
		if _, err := pool.Exec(context.Background(), `
INSERT INTO point_entries (user_id, delta, reason) VALUES ($1, $2, 'signup_bonus')
`, id, balance); err != nil {
			t.Fatalf("seed balance for %s: %v", nickname, err)
		}
	}
	return id
}

func seedActivePhoto(t *testing.T, pool *pgxpool.Pool, sellerID, startPrice, buyNowPrice int64) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(), `
INSERT INTO photos (seller_id, title, start_price, current_price, buy_now_price, start_at, end_at, status, moderation_status)
VALUES ($1, '노을 골목', $2, $2, $3, NOW() - INTERVAL '1 hour', NOW() + INTERVAL '24 hours', 'active', 'approved')
RETURNING id
`, sellerID, startPrice, buyNowPrice).Scan(&id)
	if err != nil {
		t.Fatalf("seed photo: %v", err)
	}
	return id
}

func bidStatuses(t *testing.T, pool *pgxpool.Pool, photoID int64) map[int64]enums.BidStatus {
	t.Helper()

	bids, err := NewBidRepo(pool).ListByPhoto(context.Background(), photoID, 100)
	if err != nil {
		t.Fatalf("list bids: %v", err)
	}
	statuses := make(map[int64]enums.BidStatus, len(bids))
	for _, b := range bids {
		statuses[b.ID] = b.Status
	}
	return statuses
}

func TestPlaceBidOutbidsPreviousLeader(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	seller := seedUser(t, pool, "seller", 0)
	alice := seedUser(t, pool, "alice", 1000)
	bob := seedUser(t, pool, "bob", 1000)
	photoID := seedActivePhoto(t, pool, seller, 100, 10000)

	store := NewAuctionStore(pool)
	points := NewPointRepo(pool)
	now := time.Now()

	first, err := store.PlaceBid(ctx, auctionsvc.PlaceBidParams{
		PhotoID: photoID, BidderID: alice, Amount: 200, MinIncrement: 100, Now: now,
	})
	if err != nil {
		t.Fatalf("first bid: %v", err)
	}
	if first.Outcome != rules.BidAccepted {
		t.Fatalf("first bid outcome = %v", first.Outcome)
	}

	second, err := store.PlaceBid(ctx, auctionsvc.PlaceBidParams{
		PhotoID: photoID, BidderID: bob, Amount: 300, MinIncrement: 100, Now: now,
	})
	if err != nil {
		t.Fatalf("second bid: %v", err)
	}
	if second.OutbidUserID != alice {
		t.Fatalf("outbid user = %d, want %d", second.OutbidUserID, alice)
	}

	photo, err := store.GetPhoto(ctx, photoID)
	if err != nil {
		t.Fatalf("get photo: %v", err)
	}
	if photo.CurrentPrice != 300 {
		t.Fatalf("current price = %d, want 300", photo.CurrentPrice)
	}

	statuses := bidStatuses(t, pool, photoID)
	if statuses[first.Bid.ID] != enums.BidStatusOutbid {
		t.Fatalf("first bid status = %s, want outbid", statuses[first.Bid.ID])
	}
	if statuses[second.Bid.ID] != enums.BidStatusActive {
		t.Fatalf("second bid status = %s, want active", statuses[second.Bid.ID])
	}

	if balance, err := points.Balance(ctx, alice); err != nil || balance != 1000 {
		t.Fatalf("alice balance = %d (%v), want hold released to 1000", balance, err)
	}
	if balance, err := points.Balance(ctx, bob); err != nil || balance != 700 {
		t.Fatalf("bob balance = %d (%v), want 700 after hold", balance, err)
	}
}

func TestPlaceBidSelfOutbidNeedsOnlyTheDifference(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	seller := seedUser(t, pool, "seller", 0)
	carol := seedUser(t, pool, "carol", 300)
	photoID := seedActivePhoto(t, pool, seller, 100, 10000)

	store := NewAuctionStore(pool)
	points := NewPointRepo(pool)
	now := time.Now()

	first, err := store.PlaceBid(ctx, auctionsvc.PlaceBidParams{
		PhotoID: photoID, BidderID: carol, Amount: 200, MinIncrement: 100, Now: now,
	})
	if err != nil {
		t.Fatalf("first bid: %v", err)
	}

	// Raising the own bid releases the 200 hold before checking the
	// balance, so 300 total is enough even though only 100 is free.
	second, err := store.PlaceBid(ctx, auctionsvc.PlaceBidParams{
		PhotoID: photoID, BidderID: carol, Amount: 300, MinIncrement: 100, Now: now,
	})
	if err != nil {
		t.Fatalf("raise own bid: %v", err)
	}
	if second.OutbidUserID != 0 {
		t.Fatalf("raising an own bid must not report an outbid user, got %d", second.OutbidUserID)
	}

	if balance, err := points.Balance(ctx, carol); err != nil || balance != 0 {
		t.Fatalf("carol balance = %d (%v), want 0", balance, err)
	}

	statuses := bidStatuses(t, pool, photoID)
	if statuses[first.Bid.ID] != enums.BidStatusOutbid {
		t.Fatalf("replaced bid status = %s, want outbid", statuses[first.Bid.ID])
	}
	if statuses[second.Bid.ID] != enums.BidStatusActive {
		t.Fatalf("raised bid status = %s, want active", statuses[second.Bid.ID])
	}
}

func TestApplyDecisionUpdatesPhotoStatus(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	seller := seedUser(t, pool, "seller", 0)
	store := NewAuctionStore(pool)
	moderation := NewModerationRepo(pool)
	now := time.Now()

	approveLot, err := store.CreateLot(ctx, auctionsvc.CreateLotParams{
		SellerID: seller, Title: "비 오는 광안리", StartPrice: 100, BuyNowPrice: 500, SafetyScore: 0.9,
	}, now, now.Add(72*time.Hour))
	if err != nil {
		t.Fatalf("create lot: %v", err)
	}
	rejectLot, err := store.CreateLot(ctx, auctionsvc.CreateLotParams{
		SellerID: seller, Title: "흐린 창밖", StartPrice: 100, BuyNowPrice: 500, SafetyScore: 0.6,
	}, now, now.Add(72*time.Hour))
	if err != nil {
		t.Fatalf("create lot: %v", err)
	}

	pending, err := moderation.ListByStatus(ctx, enums.ModerationStatusPending, 10, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	itemByPhoto := make(map[int64]int64, len(pending))
	for _, item := range pending {
		itemByPhoto[item.PhotoID] = item.ID
	}

	if _, err := moderation.ApplyDecision(ctx, itemByPhoto[approveLot.ID], enums.ModerationStatusApproved, nil, nil, now); err != nil {
		t.Fatalf("approve: %v", err)
	}
	reason := "워터마크 도용"
	if _, err := moderation.ApplyDecision(ctx, itemByPhoto[rejectLot.ID], enums.ModerationStatusRejected, nil, &reason, now); err != nil {
		t.Fatalf("reject: %v", err)
	}

	approved, err := store.GetPhoto(ctx, approveLot.ID)
	if err != nil {
		t.Fatalf("get approved photo: %v", err)
	}
	if approved.Status != enums.PhotoStatusActive || approved.ModerationStatus != enums.ModerationStatusApproved {
		t.Fatalf("approved photo = %s/%s, want active/approved", approved.Status, approved.ModerationStatus)
	}

	rejected, err := store.GetPhoto(ctx, rejectLot.ID)
	if err != nil {
		t.Fatalf("get rejected photo: %v", err)
	}
	if rejected.Status != enums.PhotoStatusInactive || rejected.ModerationStatus != enums.ModerationStatusRejected {
		t.Fatalf("rejected photo = %s/%s, want inactive/rejected", rejected.Status, rejected.ModerationStatus)
	}

	// A second decision on the same item must not go through.
	if _, err := moderation.ApplyDecision(ctx, itemByPhoto[approveLot.ID], enums.ModerationStatusRejected, nil, nil, now); !errors.Is(err, ErrModerationDecided) {
		t.Fatalf("expected decided error, got %v", err)
	}
}
