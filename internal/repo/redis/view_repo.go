package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const viewPrefix = "views:"

// ViewRepo deduplicates view counting: a (entity, viewer) pair counts at
// most once per calendar day. The key embeds the day and expires after
// 48h, so stale keys clean themselves up.
type ViewRepo struct {
	client *goredis.Client
	loc    *time.Location
	now    func() time.Time
}

func NewViewRepo(client *goredis.Client, loc *time.Location) *ViewRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &ViewRepo{
		client: client,
		loc:    loc,
		now:    time.Now,
	}
}

// MarkViewed returns true exactly once per (kind, id, viewer, day).
func (r *ViewRepo) MarkViewed(ctx context.Context, kind string, entityID int64, viewerKey string) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if kind == "" || entityID <= 0 || viewerKey == "" {
		return false, fmt.Errorf("invalid view payload")
	}

	day := r.now().In(r.loc).Format("2006-01-02")
	key := viewPrefix + kind + ":" + strconv.FormatInt(entityID, 10) + ":" + viewerKey + ":" + day

	ok, err := r.client.SetNX(ctx, key, 1, 48*time.Hour).Result()
	if err != nil {
		return false, fmt.Errorf("mark viewed: %w", err)
	}

	return ok, nil
}
