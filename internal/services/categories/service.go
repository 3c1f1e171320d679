package categories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("category not found")
	ErrExists     = errors.New("category already exists")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,38}[a-z0-9]$`)

type Store interface {
	Create(ctx context.Context, p pgrepo.CreateCategoryParams) (model.Category, error)
	GetByID(ctx context.Context, id int64) (model.Category, error)
	GetBySlug(ctx context.Context, slug string) (model.Category, error)
	List(ctx context.Context, activeOnly bool) ([]model.Category, error)
	Update(ctx context.Context, id int64, name, icon, color string, isActive bool) error
	Move(ctx context.Context, id int64, up bool) error
}

type Service struct {
	store Store
}

type CreateParams struct {
	Slug  string
	Name  string
	Icon  string
	Color string
}

type UpdateParams struct {
	Name     string
	Icon     string
	Color    string
	IsActive bool
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, p CreateParams) (model.Category, error) {
	slug := strings.ToLower(strings.TrimSpace(p.Slug))
	name := strings.TrimSpace(p.Name)
	if !slugPattern.MatchString(slug) || name == "" {
		return model.Category{}, ErrValidation
	}

	category, err := s.store.Create(ctx, pgrepo.CreateCategoryParams{
		Slug:  slug,
		Name:  name,
		Icon:  strings.TrimSpace(p.Icon),
		Color: strings.TrimSpace(p.Color),
	})
	if err != nil {
		return model.Category{}, s.mapErr(err)
	}
	return category, nil
}

func (s *Service) Update(ctx context.Context, id int64, p UpdateParams) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return ErrValidation
	}
	if err := s.store.Update(ctx, id, name, strings.TrimSpace(p.Icon), strings.TrimSpace(p.Color), p.IsActive); err != nil {
		return s.mapErr(err)
	}
	return nil
}

// List returns categories in display order. Non-admin callers only see
// active ones.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]model.Category, error) {
	return s.store.List(ctx, !includeInactive)
}

func (s *Service) Get(ctx context.Context, id int64) (model.Category, error) {
	category, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Category{}, s.mapErr(err)
	}
	return category, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (model.Category, error) {
	category, err := s.store.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return model.Category{}, s.mapErr(err)
	}
	return category, nil
}

// MoveUp swaps the category with its upper neighbor; a move at the top
// is a no-op, so repeated calls are idempotent.
func (s *Service) MoveUp(ctx context.Context, id int64) error {
	if err := s.store.Move(ctx, id, true); err != nil {
		return s.mapErr(err)
	}
	return nil
}

func (s *Service) MoveDown(ctx context.Context, id int64) error {
	if err := s.store.Move(ctx, id, false); err != nil {
		return s.mapErr(err)
	}
	return nil
}

func (s *Service) mapErr(err error) error {
	switch {
	case errors.Is(err, pgrepo.ErrCategoryNotFound):
		return ErrNotFound
	case errors.Is(err, pgrepo.ErrCategoryExists):
		return ErrExists
	}
	return fmt.Errorf("categories: %w", err)
}
