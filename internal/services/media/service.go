package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrFileTooLarge   = errors.New("file exceeds the upload limit")
	ErrUnsupportedExt = errors.New("unsupported image type")
)

const (
	signedURLTTL   = 5 * time.Minute
	maxUploadBytes = 20 << 20 // 20 MiB
)

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// allowedExtensions are the filename extensions a client may carry into
// the object key. Anything else keeps the content-type mapping.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutPhoto(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// Service stores raw photo files. The lot row itself is created by the
// auction service once the upload has an object key and a safety score.
type Service struct {
	storage ObjectStorage
	now     func() time.Time
}

type Upload struct {
	ObjectKey string
	URL       string
}

func NewService(storage ObjectStorage) *Service {
	return &Service{
		storage: storage,
		now:     time.Now,
	}
}

// UploadPhoto writes the image to object storage and returns the key
// plus a short-lived preview URL.
func (s *Service) UploadPhoto(ctx context.Context, userID int64, fileName, contentType string, body io.Reader, size int64) (Upload, error) {
	if userID <= 0 || body == nil || size <= 0 {
		return Upload{}, ErrValidation
	}
	if size > maxUploadBytes {
		return Upload{}, ErrFileTooLarge
	}
	if s.storage == nil {
		return Upload{}, fmt.Errorf("media storage is not configured")
	}

	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return Upload{}, ErrUnsupportedExt
	}
	if fromName := strings.ToLower(path.Ext(strings.TrimSpace(fileName))); allowedExtensions[fromName] {
		ext = fromName
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Upload{}, fmt.Errorf("ensure bucket: %w", err)
	}

	objectKey := s.buildObjectKey(userID, ext)

	if err := s.storage.PutPhoto(ctx, objectKey, body, size, contentType); err != nil {
		return Upload{}, fmt.Errorf("put object: %w", err)
	}

	url, err := s.storage.PresignGet(ctx, objectKey, signedURLTTL)
	if err != nil {
		return Upload{}, fmt.Errorf("presign photo url: %w", err)
	}

	return Upload{ObjectKey: objectKey, URL: url}, nil
}

// PresignGet exposes signed read URLs to the feed and the moderation
// queue.
func (s *Service) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("media storage is not configured")
	}
	return s.storage.PresignGet(ctx, key, ttl)
}

// Delete removes an orphaned upload, e.g. when lot creation fails after
// the file landed in storage.
func (s *Service) Delete(ctx context.Context, key string) error {
	if s.storage == nil {
		return fmt.Errorf("media storage is not configured")
	}
	return s.storage.Delete(ctx, key)
}

func (s *Service) buildObjectKey(userID int64, ext string) string {
	stamp := s.now().UTC().Format("20060102T150405")
	return fmt.Sprintf("photos/%d/%s_%s%s", userID, stamp, uuid.NewString(), ext)
}
