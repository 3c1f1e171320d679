package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *goredis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestMarkViewedCountsOncePerViewerPerDay(t *testing.T) {
	repo := NewViewRepo(newTestClient(t), time.UTC)
	ctx := context.Background()

	first, err := repo.MarkViewed(ctx, "post", 7, "user:42")
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if !first {
		t.Fatalf("first view must count")
	}

	second, err := repo.MarkViewed(ctx, "post", 7, "user:42")
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if second {
		t.Fatalf("repeat view on the same day must not count")
	}

	other, err := repo.MarkViewed(ctx, "post", 7, "user:43")
	if err != nil {
		t.Fatalf("other viewer mark: %v", err)
	}
	if !other {
		t.Fatalf("different viewer must count")
	}
}

func TestMarkViewedResetsOnNextDay(t *testing.T) {
	repo := NewViewRepo(newTestClient(t), time.UTC)
	ctx := context.Background()

	base := time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return base }

	if counted, err := repo.MarkViewed(ctx, "photo", 3, "user:1"); err != nil || !counted {
		t.Fatalf("day one view: counted=%v err=%v", counted, err)
	}

	repo.now = func() time.Time { return base.Add(2 * time.Hour) } // past midnight
	counted, err := repo.MarkViewed(ctx, "photo", 3, "user:1")
	if err != nil {
		t.Fatalf("day two view: %v", err)
	}
	if !counted {
		t.Fatalf("view must count again after the day rolls over")
	}
}

func TestMarkViewedRejectsInvalidPayload(t *testing.T) {
	repo := NewViewRepo(newTestClient(t), time.UTC)

	if _, err := repo.MarkViewed(context.Background(), "", 1, "user:1"); err == nil {
		t.Fatalf("empty kind must be rejected")
	}
	if _, err := repo.MarkViewed(context.Background(), "post", 0, "user:1"); err == nil {
		t.Fatalf("zero entity id must be rejected")
	}
}
