package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
)

var ErrPostNotFound = errors.New("post not found")

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

const postColumns = ` id, author_id, title, content, likes_count, comments_count, views_count, created_at, updated_at`

func (r *PostRepo) Create(ctx context.Context, authorID int64, title, content string) (model.CommunityPost, error) {
	if authorID <= 0 || title == "" || content == "" {
		return model.CommunityPost{}, fmt.Errorf("invalid post payload")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO community_posts (author_id, title, content, likes_count, comments_count, views_count, created_at, updated_at)
VALUES ($1, $2, $3, 0, 0, 0, NOW(), NOW())
RETURNING`+postColumns, authorID, title, content)

	post, err := scanPost(row)
	if err != nil {
		return model.CommunityPost{}, fmt.Errorf("insert post: %w", err)
	}
	return post, nil
}

func (r *PostRepo) GetByID(ctx context.Context, id int64) (model.CommunityPost, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+postColumns+` FROM community_posts WHERE id = $1`, id)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CommunityPost{}, ErrPostNotFound
		}
		return model.CommunityPost{}, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

func (r *PostRepo) Update(ctx context.Context, id, authorID int64, title, content string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE community_posts SET title = $3, content = $4, updated_at = NOW()
WHERE id = $1 AND author_id = $2
`, id, authorID, title, content)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, id, authorID int64) error {
	tag, err := r.pool.Exec(ctx, `
DELETE FROM community_posts WHERE id = $1 AND author_id = $2
`, id, authorID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeleteAny removes a post regardless of author. Admin surface only.
func (r *PostRepo) DeleteAny(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM community_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

type PostSort string

const (
	PostSortNewest  PostSort = "newest"
	PostSortPopular PostSort = "popular"
)

func (r *PostRepo) List(ctx context.Context, sort PostSort, limit, offset int) ([]model.CommunityPost, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	order := `created_at DESC, id DESC`
	if sort == PostSortPopular {
		order = `likes_count DESC, comments_count DESC, id DESC`
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+postColumns+`
FROM community_posts
ORDER BY `+order+`
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.CommunityPost, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate posts: %w", rows.Err())
	}

	return posts, nil
}

func (r *PostRepo) IncrementViews(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE community_posts SET views_count = views_count + 1 WHERE id = $1
`, id)
	if err != nil {
		return fmt.Errorf("increment post views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ToggleLike flips the like state and keeps the counter in step. Returns
// whether the post is liked after the call.
func (r *PostRepo) ToggleLike(ctx context.Context, postID, userID int64) (bool, error) {
	var liked bool
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2
`, postID, userID)
		if err != nil {
			return fmt.Errorf("delete like: %w", err)
		}

		if tag.RowsAffected() > 0 {
			liked = false
			_, err = tx.Exec(ctx, `
UPDATE community_posts SET likes_count = GREATEST(likes_count - 1, 0) WHERE id = $1
`, postID)
			if err != nil {
				return fmt.Errorf("decrement likes: %w", err)
			}
			return nil
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO post_likes (post_id, user_id, created_at) VALUES ($1, $2, NOW())
`, postID, userID); err != nil {
			return fmt.Errorf("insert like: %w", err)
		}
		liked = true

		tag, err = tx.Exec(ctx, `
UPDATE community_posts SET likes_count = likes_count + 1 WHERE id = $1
`, postID)
		if err != nil {
			return fmt.Errorf("increment likes: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrPostNotFound
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

func (r *PostRepo) IsLiked(ctx context.Context, postID, userID int64) (bool, error) {
	var liked bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)
`, postID, userID).Scan(&liked)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return liked, nil
}

func scanPost(row rowScanner) (model.CommunityPost, error) {
	var post model.CommunityPost
	if err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Title,
		&post.Content,
		&post.LikesCount,
		&post.CommentsCount,
		&post.ViewsCount,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		return model.CommunityPost{}, err
	}
	return post, nil
}
