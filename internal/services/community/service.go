package community

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/rules"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
)

const (
	contentMinLen = 2
	contentMaxLen = 5000

	defaultPageSize = 20
	maxPageSize     = 50
)

var (
	ErrValidation      = errors.New("validation error")
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
)

type PostStore interface {
	Create(ctx context.Context, authorID int64, title, content string) (model.CommunityPost, error)
	GetByID(ctx context.Context, id int64) (model.CommunityPost, error)
	Update(ctx context.Context, id, authorID int64, title, content string) error
	Delete(ctx context.Context, id, authorID int64) error
	DeleteAny(ctx context.Context, id int64) error
	List(ctx context.Context, sort pgrepo.PostSort, limit, offset int) ([]model.CommunityPost, error)
	IncrementViews(ctx context.Context, id int64) error
	ToggleLike(ctx context.Context, postID, userID int64) (bool, error)
}

type CommentStore interface {
	Create(ctx context.Context, postID, authorID int64, content string) (model.Comment, error)
	Delete(ctx context.Context, commentID, authorID int64) error
	ListByPost(ctx context.Context, postID int64, limit, offset int) ([]model.Comment, error)
}

type ViewStore interface {
	MarkViewed(ctx context.Context, kind string, entityID int64, viewerKey string) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, kind enums.NotificationKind, payload map[string]any)
}

type Dependencies struct {
	Posts    PostStore
	Comments CommentStore
	Views    ViewStore
	Notifier Notifier
	Logger   *zap.Logger
}

type Service struct {
	posts    PostStore
	comments CommentStore
	views    ViewStore
	notifier Notifier
	log      *zap.Logger
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		posts:    deps.Posts,
		comments: deps.Comments,
		views:    deps.Views,
		notifier: deps.Notifier,
		log:      log,
	}
}

func (s *Service) CreatePost(ctx context.Context, authorID int64, title, content string) (model.CommunityPost, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := rules.ValidateTitle(title); err != nil {
		return model.CommunityPost{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := rules.ValidateContent(content, contentMinLen, contentMaxLen); err != nil {
		return model.CommunityPost{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	post, err := s.posts.Create(ctx, authorID, title, content)
	if err != nil {
		return model.CommunityPost{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

func (s *Service) UpdatePost(ctx context.Context, postID, authorID int64, title, content string) error {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := rules.ValidateTitle(title); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := rules.ValidateContent(content, contentMinLen, contentMaxLen); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if err := s.posts.Update(ctx, postID, authorID, title, content); err != nil {
		return s.mapErr(err)
	}
	return nil
}

// DeletePost removes the author's own post; admins may delete any post.
func (s *Service) DeletePost(ctx context.Context, postID, callerID int64, isAdmin bool) error {
	var err error
	if isAdmin {
		err = s.posts.DeleteAny(ctx, postID)
	} else {
		err = s.posts.Delete(ctx, postID, callerID)
	}
	if err != nil {
		return s.mapErr(err)
	}
	return nil
}

func (s *Service) ListPosts(ctx context.Context, sort string, limit, offset int) ([]model.CommunityPost, error) {
	postSort := pgrepo.PostSortNewest
	if strings.EqualFold(strings.TrimSpace(sort), string(pgrepo.PostSortPopular)) {
		postSort = pgrepo.PostSortPopular
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.posts.List(ctx, postSort, limit, offset)
}

// GetPost loads one post counting the view at most once per viewer per
// day. Dedupe outages degrade to not counting.
func (s *Service) GetPost(ctx context.Context, postID int64, viewerKey string) (model.CommunityPost, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return model.CommunityPost{}, s.mapErr(err)
	}

	if viewerKey != "" && s.views != nil {
		first, err := s.views.MarkViewed(ctx, "post", postID, viewerKey)
		if err != nil {
			s.log.Warn("post view dedupe unavailable", zap.Int64("post_id", postID), zap.Error(err))
		} else if first {
			if err := s.posts.IncrementViews(ctx, postID); err != nil {
				s.log.Warn("increment post views", zap.Int64("post_id", postID), zap.Error(err))
			} else {
				post.ViewsCount++
			}
		}
	}

	return post, nil
}

// ToggleLike flips the like and tells the author about new likes.
// Self-likes stay silent.
func (s *Service) ToggleLike(ctx context.Context, postID, userID int64) (bool, error) {
	liked, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return false, s.mapErr(err)
	}

	if liked && s.notifier != nil {
		if post, err := s.posts.GetByID(ctx, postID); err == nil && post.AuthorID != userID {
			s.notifier.Notify(ctx, post.AuthorID, enums.NotificationKindLike, map[string]any{
				"post_id": strconv.FormatInt(postID, 10),
			})
		}
	}
	return liked, nil
}

func (s *Service) AddComment(ctx context.Context, postID, authorID int64, content string) (model.Comment, error) {
	content = strings.TrimSpace(content)
	if err := rules.ValidateContent(content, contentMinLen, contentMaxLen); err != nil {
		return model.Comment{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	comment, err := s.comments.Create(ctx, postID, authorID, content)
	if err != nil {
		return model.Comment{}, s.mapErr(err)
	}

	if s.notifier != nil {
		if post, err := s.posts.GetByID(ctx, postID); err == nil && post.AuthorID != authorID {
			s.notifier.Notify(ctx, post.AuthorID, enums.NotificationKindComment, map[string]any{
				"post_id":    strconv.FormatInt(postID, 10),
				"comment_id": strconv.FormatInt(comment.ID, 10),
			})
		}
	}
	return comment, nil
}

func (s *Service) DeleteComment(ctx context.Context, commentID, authorID int64) error {
	if err := s.comments.Delete(ctx, commentID, authorID); err != nil {
		return s.mapErr(err)
	}
	return nil
}

func (s *Service) ListComments(ctx context.Context, postID int64, limit, offset int) ([]model.Comment, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.comments.ListByPost(ctx, postID, limit, offset)
}

func (s *Service) mapErr(err error) error {
	switch {
	case errors.Is(err, pgrepo.ErrPostNotFound):
		return ErrPostNotFound
	case errors.Is(err, pgrepo.ErrCommentNotFound):
		return ErrCommentNotFound
	}
	return err
}
