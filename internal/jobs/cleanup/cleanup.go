// Package cleanup purges object storage for lots that moderation
// rejected. The photo row stays for the seller's history; only the
// image itself is removed after the retention window.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
)

const batchSize = 100

type MediaLister interface {
	ListRejectedMedia(ctx context.Context, cutoff time.Time, limit int) ([]pgrepo.RejectedMedia, error)
	ClearObjectKey(ctx context.Context, photoID int64) error
}

type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

type Job struct {
	photos    MediaLister
	storage   ObjectDeleter
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewRejectedMediaJob(photos MediaLister, storage ObjectDeleter, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		photos:    photos,
		storage:   storage,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

// Run removes one batch per call. A delete failure skips the row so the
// next pass retries it; the key is cleared only after the object is gone.
func (j *Job) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)

	items, err := j.photos.ListRejectedMedia(ctx, cutoff, batchSize)
	if err != nil {
		return fmt.Errorf("list rejected media: %w", err)
	}

	removed := 0
	for _, item := range items {
		if err := j.storage.Delete(ctx, item.ObjectKey); err != nil {
			j.logger.Warn("delete rejected object failed",
				zap.Int64("photo_id", item.PhotoID),
				zap.String("object_key", item.ObjectKey),
				zap.Error(err))
			continue
		}
		if err := j.photos.ClearObjectKey(ctx, item.PhotoID); err != nil {
			j.logger.Warn("clear object key failed",
				zap.Int64("photo_id", item.PhotoID),
				zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("rejected media purged", zap.Int("count", removed))
	}
	return nil
}
