package categories

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
)

type stubCategoryStore struct {
	mu         sync.Mutex
	nextID     int64
	categories map[int64]model.Category
}

func newStubCategoryStore() *stubCategoryStore {
	return &stubCategoryStore{categories: map[int64]model.Category{}}
}

func (s *stubCategoryStore) Create(_ context.Context, p pgrepo.CreateCategoryParams) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Slug == p.Slug {
			return model.Category{}, pgrepo.ErrCategoryExists
		}
	}
	s.nextID++
	c := model.Category{
		ID:           s.nextID,
		Slug:         p.Slug,
		Name:         p.Name,
		Icon:         p.Icon,
		Color:        p.Color,
		DisplayOrder: len(s.categories),
		IsActive:     true,
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *stubCategoryStore) GetByID(_ context.Context, id int64) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return model.Category{}, pgrepo.ErrCategoryNotFound
	}
	return c, nil
}

func (s *stubCategoryStore) GetBySlug(_ context.Context, slug string) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return model.Category{}, pgrepo.ErrCategoryNotFound
}

func (s *stubCategoryStore) List(_ context.Context, activeOnly bool) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Category
	for _, c := range s.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (s *stubCategoryStore) Update(_ context.Context, id int64, name, icon, color string, isActive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return pgrepo.ErrCategoryNotFound
	}
	c.Name, c.Icon, c.Color, c.IsActive = name, icon, color, isActive
	s.categories[id] = c
	return nil
}

func (s *stubCategoryStore) Move(_ context.Context, id int64, up bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return pgrepo.ErrCategoryNotFound
	}

	target := c.DisplayOrder - 1
	if !up {
		target = c.DisplayOrder + 1
	}
	for nid, n := range s.categories {
		if n.DisplayOrder == target {
			n.DisplayOrder, c.DisplayOrder = c.DisplayOrder, n.DisplayOrder
			s.categories[nid] = n
			s.categories[id] = c
			return nil
		}
	}
	// no neighbor at the boundary
	return nil
}

func orderOf(t *testing.T, svc *Service) []string {
	t.Helper()
	items, err := svc.List(context.Background(), true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	slugs := make([]string, 0, len(items))
	for _, c := range items {
		slugs = append(slugs, c.Slug)
	}
	return slugs
}

func TestCreateValidatesSlug(t *testing.T) {
	svc := NewService(newStubCategoryStore())
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateParams{Slug: "풍경", Name: "풍경"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected slug rejection, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateParams{Slug: "landscape", Name: "풍경"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateParams{Slug: "LANDSCAPE", Name: "풍경2"}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestMoveSwapsNeighbors(t *testing.T) {
	store := newStubCategoryStore()
	svc := NewService(store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateParams{Slug: "landscape", Name: "풍경"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	b, _ := svc.Create(ctx, CreateParams{Slug: "portrait", Name: "인물"})
	if _, err := svc.Create(ctx, CreateParams{Slug: "night", Name: "야경"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.MoveUp(ctx, b.ID); err != nil {
		t.Fatalf("move up: %v", err)
	}
	got := orderOf(t, svc)
	want := []string{"portrait", "landscape", "night"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	// moving the top item up is a no-op, twice over
	if err := svc.MoveUp(ctx, b.ID); err != nil {
		t.Fatalf("boundary move: %v", err)
	}
	if err := svc.MoveUp(ctx, b.ID); err != nil {
		t.Fatalf("boundary move again: %v", err)
	}
	got = orderOf(t, svc)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("boundary move changed order: %v", got)
		}
	}
}

func TestMoveUnknownCategory(t *testing.T) {
	svc := NewService(newStubCategoryStore())

	if err := svc.MoveDown(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
