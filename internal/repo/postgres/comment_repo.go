package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

const commentColumns = ` id, post_id, author_id, content, created_at`

// Create inserts the comment and bumps the post counter in one
// transaction so the two never drift.
func (r *CommentRepo) Create(ctx context.Context, postID, authorID int64, content string) (model.Comment, error) {
	if postID <= 0 || authorID <= 0 || content == "" {
		return model.Comment{}, fmt.Errorf("invalid comment payload")
	}

	var comment model.Comment
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
INSERT INTO comments (post_id, author_id, content, created_at)
VALUES ($1, $2, $3, NOW())
RETURNING`+commentColumns, postID, authorID, content)

		c, err := scanComment(row)
		if err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		comment = c

		tag, err := tx.Exec(ctx, `
UPDATE community_posts SET comments_count = comments_count + 1 WHERE id = $1
`, postID)
		if err != nil {
			return fmt.Errorf("increment comment count: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrPostNotFound
		}
		return nil
	})
	if err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

func (r *CommentRepo) Delete(ctx context.Context, commentID, authorID int64) error {
	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var postID int64
		err := tx.QueryRow(ctx, `
DELETE FROM comments WHERE id = $1 AND author_id = $2 RETURNING post_id
`, commentID, authorID).Scan(&postID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCommentNotFound
			}
			return fmt.Errorf("delete comment: %w", err)
		}

		if _, err := tx.Exec(ctx, `
UPDATE community_posts SET comments_count = GREATEST(comments_count - 1, 0) WHERE id = $1
`, postID); err != nil {
			return fmt.Errorf("decrement comment count: %w", err)
		}
		return nil
	})
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID int64, limit, offset int) ([]model.Comment, error) {
	if postID <= 0 {
		return nil, fmt.Errorf("invalid post id")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+commentColumns+`
FROM comments
WHERE post_id = $1
ORDER BY created_at ASC, id ASC
LIMIT $2 OFFSET $3
`, postID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0, limit)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate comments: %w", rows.Err())
	}

	return comments, nil
}

func scanComment(row rowScanner) (model.Comment, error) {
	var c model.Comment
	if err := row.Scan(
		&c.ID,
		&c.PostID,
		&c.AuthorID,
		&c.Content,
		&c.CreatedAt,
	); err != nil {
		return model.Comment{}, err
	}
	return c, nil
}
