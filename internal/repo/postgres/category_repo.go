package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

type CategoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

const categoryColumns = ` id, slug, name, icon, color, display_order, is_active, created_at`

type CreateCategoryParams struct {
	Slug  string
	Name  string
	Icon  string
	Color string
}

// Create appends the category at the end of the ordering.
func (r *CategoryRepo) Create(ctx context.Context, p CreateCategoryParams) (model.Category, error) {
	if p.Slug == "" || p.Name == "" {
		return model.Category{}, fmt.Errorf("slug and name are required")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO categories (slug, name, icon, color, display_order, is_active, created_at)
VALUES ($1, $2, $3, $4,
        (SELECT COALESCE(MAX(display_order) + 1, 0) FROM categories),
        TRUE, NOW())
RETURNING`+categoryColumns, p.Slug, p.Name, p.Icon, p.Color)

	cat, err := scanCategory(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Category{}, ErrCategoryExists
		}
		return model.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return cat, nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, id int64) (model.Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+categoryColumns+` FROM categories WHERE id = $1`, id)

	cat, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Category{}, ErrCategoryNotFound
		}
		return model.Category{}, fmt.Errorf("get category: %w", err)
	}
	return cat, nil
}

func (r *CategoryRepo) GetBySlug(ctx context.Context, slug string) (model.Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+categoryColumns+` FROM categories WHERE slug = $1`, slug)

	cat, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Category{}, ErrCategoryNotFound
		}
		return model.Category{}, fmt.Errorf("get category by slug: %w", err)
	}
	return cat, nil
}

// List returns categories in display order. Pass activeOnly for the
// public surface; the admin console sees everything.
func (r *CategoryRepo) List(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	q := `SELECT` + categoryColumns + ` FROM categories`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY display_order ASC, id ASC`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := make([]model.Category, 0, 16)
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, cat)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate categories: %w", rows.Err())
	}

	return cats, nil
}

func (r *CategoryRepo) Update(ctx context.Context, id int64, name, icon, color string, isActive bool) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE categories SET name = $2, icon = $3, color = $4, is_active = $5
WHERE id = $1
`, id, name, icon, color, isActive)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// Move swaps display_order with the neighbor in the given direction.
// A move past either end is a no-op, not an error.
func (r *CategoryRepo) Move(ctx context.Context, id int64, up bool) error {
	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var order int
		err := tx.QueryRow(ctx, `
SELECT display_order FROM categories WHERE id = $1 FOR UPDATE
`, id).Scan(&order)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("lock category: %w", err)
		}

		var (
			neighborID    int64
			neighborOrder int
		)
		if up {
			err = tx.QueryRow(ctx, `
SELECT id, display_order FROM categories
WHERE display_order < $1
ORDER BY display_order DESC
LIMIT 1
FOR UPDATE
`, order).Scan(&neighborID, &neighborOrder)
		} else {
			err = tx.QueryRow(ctx, `
SELECT id, display_order FROM categories
WHERE display_order > $1
ORDER BY display_order ASC
LIMIT 1
FOR UPDATE
`, order).Scan(&neighborID, &neighborOrder)
		}
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil // already at the edge
			}
			return fmt.Errorf("find neighbor: %w", err)
		}

		if _, err := tx.Exec(ctx, `
UPDATE categories SET display_order = $2 WHERE id = $1
`, id, neighborOrder); err != nil {
			return fmt.Errorf("move category: %w", err)
		}
		if _, err := tx.Exec(ctx, `
UPDATE categories SET display_order = $2 WHERE id = $1
`, neighborID, order); err != nil {
			return fmt.Errorf("move neighbor: %w", err)
		}
		return nil
	})
}

func scanCategory(row rowScanner) (model.Category, error) {
	var cat model.Category
	if err := row.Scan(
		&cat.ID,
		&cat.Slug,
		&cat.Name,
		&cat.Icon,
		&cat.Color,
		&cat.DisplayOrder,
		&cat.IsActive,
		&cat.CreatedAt,
	); err != nil {
		return model.Category{}, err
	}
	return cat, nil
}
