package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
)

const defaultMaxBatchSize = 100

var ErrValidation = errors.New("validation error")

type Store interface {
	InsertBatch(ctx context.Context, events []model.Event) error
}

type Config struct {
	MaxBatchSize int
}

type Service struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// BatchEvent is one client-side event as the app submits it. TS is a
// unix timestamp in seconds or milliseconds; zero means "now".
type BatchEvent struct {
	Name  string
	TS    int64
	Props map[string]any
}

func NewService(store Store, cfg Config) *Service {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = defaultMaxBatchSize
	}

	return &Service{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// IngestBatch validates and stores a batch of client events. The batch
// is all-or-nothing; an oversized or malformed batch is rejected whole.
func (s *Service) IngestBatch(ctx context.Context, userID *int64, events []BatchEvent) error {
	if s.store == nil {
		return fmt.Errorf("analytics store is nil")
	}
	if len(events) == 0 || len(events) > s.cfg.MaxBatchSize {
		return ErrValidation
	}

	now := s.now().UTC()
	rows := make([]model.Event, 0, len(events))
	for _, event := range events {
		name := strings.TrimSpace(event.Name)
		if name == "" {
			return ErrValidation
		}

		rows = append(rows, model.Event{
			UserID:    userID,
			Name:      name,
			Props:     cloneProps(event.Props),
			CreatedAt: parseTS(event.TS, now),
		})
	}

	if err := s.store.InsertBatch(ctx, rows); err != nil {
		return fmt.Errorf("insert events batch: %w", err)
	}

	return nil
}

func parseTS(ts int64, fallback time.Time) time.Time {
	if ts <= 0 {
		return fallback
	}
	if ts >= 1_000_000_000_000 {
		return time.UnixMilli(ts).UTC()
	}
	return time.Unix(ts, 0).UTC()
}

func cloneProps(props map[string]any) map[string]any {
	if len(props) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(props))
	for key, value := range props {
		out[key] = value
	}
	return out
}
