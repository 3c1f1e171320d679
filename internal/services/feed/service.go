package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/rules"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	photoURLTTL     = 5 * time.Minute
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

type PhotoStore interface {
	ListFeed(ctx context.Context, q pgrepo.FeedQuery) ([]model.Photo, error)
	GetByID(ctx context.Context, photoID int64) (model.Photo, error)
	IncrementViews(ctx context.Context, photoID int64) error
	ToggleLike(ctx context.Context, photoID, userID int64) (bool, error)
}

// ViewStore deduplicates views per viewer per day.
type ViewStore interface {
	MarkViewed(ctx context.Context, kind string, entityID int64, viewerKey string) (bool, error)
}

type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Config struct {
	PageSize int
	PageMax  int
}

type Dependencies struct {
	Photos PhotoStore
	Views  ViewStore
	Signer URLSigner
	Logger *zap.Logger
	Cfg    Config
}

type Service struct {
	photos PhotoStore
	views  ViewStore
	signer URLSigner
	log    *zap.Logger
	cfg    Config
	now    func() time.Time
}

type FeedParams struct {
	CategoryID int64
	SellerID   int64
	Status     string
	Search     string
	Sort       string
	Limit      int
	Offset     int
}

// Card is one lot as the client renders it: the photo row plus a signed
// preview URL and the countdown derived from the absolute deadline.
type Card struct {
	Photo     model.Photo
	PhotoURL  string
	Remaining time.Duration
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := deps.Cfg
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.PageMax <= 0 {
		cfg.PageMax = maxPageSize
	}

	return &Service{
		photos: deps.Photos,
		views:  deps.Views,
		signer: deps.Signer,
		log:    log,
		cfg:    cfg,
		now:    time.Now,
	}
}

// List pages through the catalog. Status defaults to active so the
// public feed only shows open auctions.
func (s *Service) List(ctx context.Context, p FeedParams) ([]Card, error) {
	status := enums.PhotoStatus(strings.ToLower(strings.TrimSpace(p.Status)))
	if status == "" {
		status = enums.PhotoStatusActive
	}
	if !status.Valid() {
		return nil, ErrValidation
	}

	limit := p.Limit
	if limit <= 0 {
		limit = s.cfg.PageSize
	}
	if limit > s.cfg.PageMax {
		limit = s.cfg.PageMax
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}

	photos, err := s.photos.ListFeed(ctx, pgrepo.FeedQuery{
		CategoryID: p.CategoryID,
		SellerID:   p.SellerID,
		Status:     status,
		Search:     strings.TrimSpace(p.Search),
		Sort:       p.Sort,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}

	now := s.now()
	cards := make([]Card, 0, len(photos))
	for _, photo := range photos {
		cards = append(cards, s.card(ctx, photo, now))
	}
	return cards, nil
}

// Get loads one lot and counts the view. viewerKey identifies the
// viewer (user id or client fingerprint); each viewer counts once per
// day, and a redis outage degrades to not counting rather than failing
// the read.
func (s *Service) Get(ctx context.Context, photoID int64, viewerKey string) (Card, error) {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPhotoNotFound) {
			return Card{}, ErrNotFound
		}
		return Card{}, fmt.Errorf("get photo: %w", err)
	}

	if viewerKey != "" && s.views != nil {
		first, err := s.views.MarkViewed(ctx, "photo", photoID, viewerKey)
		if err != nil {
			s.log.Warn("view dedupe unavailable", zap.Int64("photo_id", photoID), zap.Error(err))
		} else if first {
			if err := s.photos.IncrementViews(ctx, photoID); err != nil {
				s.log.Warn("increment views", zap.Int64("photo_id", photoID), zap.Error(err))
			} else {
				photo.ViewsCount++
			}
		}
	}

	return s.card(ctx, photo, s.now()), nil
}

// ToggleLike flips the caller's like on a lot and returns the new state.
func (s *Service) ToggleLike(ctx context.Context, photoID, userID int64) (bool, error) {
	liked, err := s.photos.ToggleLike(ctx, photoID, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPhotoNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle like: %w", err)
	}
	return liked, nil
}

func (s *Service) card(ctx context.Context, photo model.Photo, now time.Time) Card {
	c := Card{
		Photo:     photo,
		Remaining: rules.Remaining(photo.EndAt, now),
	}

	if s.signer != nil && photo.ObjectKey != "" {
		url, err := s.signer.PresignGet(ctx, photo.ObjectKey, photoURLTTL)
		if err != nil {
			s.log.Warn("presign photo url", zap.Int64("photo_id", photo.ID), zap.Error(err))
		} else {
			c.PhotoURL = url
		}
	}
	return c
}
