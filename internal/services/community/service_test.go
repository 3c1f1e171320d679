package community

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
)

type stubPostStore struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]model.CommunityPost
	liked  map[int64]map[int64]bool
}

func newStubPostStore() *stubPostStore {
	return &stubPostStore{
		posts: map[int64]model.CommunityPost{},
		liked: map[int64]map[int64]bool{},
	}
}

func (s *stubPostStore) Create(_ context.Context, authorID int64, title, content string) (model.CommunityPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := model.CommunityPost{
		ID:        s.nextID,
		AuthorID:  authorID,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.posts[p.ID] = p
	return p, nil
}

func (s *stubPostStore) GetByID(_ context.Context, id int64) (model.CommunityPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return model.CommunityPost{}, pgrepo.ErrPostNotFound
	}
	return p, nil
}

func (s *stubPostStore) Update(_ context.Context, id, authorID int64, title, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.AuthorID != authorID {
		return pgrepo.ErrPostNotFound
	}
	p.Title = title
	p.Content = content
	s.posts[id] = p
	return nil
}

func (s *stubPostStore) Delete(_ context.Context, id, authorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.AuthorID != authorID {
		return pgrepo.ErrPostNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *stubPostStore) DeleteAny(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return pgrepo.ErrPostNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *stubPostStore) List(_ context.Context, _ pgrepo.PostSort, _, _ int) ([]model.CommunityPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CommunityPost, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubPostStore) IncrementViews(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return pgrepo.ErrPostNotFound
	}
	p.ViewsCount++
	s.posts[id] = p
	return nil
}

func (s *stubPostStore) ToggleLike(_ context.Context, postID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return false, pgrepo.ErrPostNotFound
	}
	if s.liked[postID] == nil {
		s.liked[postID] = map[int64]bool{}
	}
	s.liked[postID][userID] = !s.liked[postID][userID]
	if s.liked[postID][userID] {
		p.LikesCount++
	} else {
		p.LikesCount--
	}
	s.posts[postID] = p
	return s.liked[postID][userID], nil
}

type stubCommentStore struct {
	mu       sync.Mutex
	nextID   int64
	posts    *stubPostStore
	comments map[int64]model.Comment
}

func (s *stubCommentStore) Create(ctx context.Context, postID, authorID int64, content string) (model.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return model.Comment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c := model.Comment{
		ID:        s.nextID,
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if s.comments == nil {
		s.comments = map[int64]model.Comment{}
	}
	s.comments[c.ID] = c
	return c, nil
}

func (s *stubCommentStore) Delete(_ context.Context, commentID, authorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[commentID]
	if !ok || c.AuthorID != authorID {
		return pgrepo.ErrCommentNotFound
	}
	delete(s.comments, commentID)
	return nil
}

func (s *stubCommentStore) ListByPost(_ context.Context, postID int64, _, _ int) ([]model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []enums.NotificationKind
}

func (n *stubNotifier) Notify(_ context.Context, _ int64, kind enums.NotificationKind, _ map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, kind)
}

func newCommunityService(notifier *stubNotifier) (*Service, *stubPostStore, *stubCommentStore) {
	posts := newStubPostStore()
	comments := &stubCommentStore{posts: posts}
	svc := NewService(Dependencies{Posts: posts, Comments: comments, Notifier: notifier})
	return svc, posts, comments
}

func TestCreatePostValidates(t *testing.T) {
	svc, _, _ := newCommunityService(nil)
	ctx := context.Background()

	if _, err := svc.CreatePost(ctx, 1, "시발 제목", "내용입니다"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected profanity rejection, got %v", err)
	}
	if _, err := svc.CreatePost(ctx, 1, "a", "내용입니다"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected short title rejection, got %v", err)
	}

	post, err := svc.CreatePost(ctx, 1, "오늘의 출사 후기", "한강에서 찍었습니다")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.ID == 0 {
		t.Fatalf("post id not assigned")
	}
}

func TestCommentNotifiesAuthorOnce(t *testing.T) {
	notifier := &stubNotifier{}
	svc, _, _ := newCommunityService(notifier)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, 1, "오늘의 출사 후기", "한강에서 찍었습니다")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if _, err := svc.AddComment(ctx, post.ID, 2, "좋은 사진이네요"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	// the author commenting on their own post stays silent
	if _, err := svc.AddComment(ctx, post.ID, 1, "감사합니다"); err != nil {
		t.Fatalf("self comment: %v", err)
	}

	if len(notifier.sent) != 1 || notifier.sent[0] != enums.NotificationKindComment {
		t.Fatalf("expected one comment notification, got %v", notifier.sent)
	}
}

func TestToggleLikeNotifiesOnLikeOnly(t *testing.T) {
	notifier := &stubNotifier{}
	svc, _, _ := newCommunityService(notifier)
	ctx := context.Background()

	post, _ := svc.CreatePost(ctx, 1, "오늘의 출사 후기", "한강에서 찍었습니다")

	liked, err := svc.ToggleLike(ctx, post.ID, 2)
	if err != nil || !liked {
		t.Fatalf("like: liked=%v err=%v", liked, err)
	}
	liked, err = svc.ToggleLike(ctx, post.ID, 2)
	if err != nil || liked {
		t.Fatalf("unlike: liked=%v err=%v", liked, err)
	}

	if len(notifier.sent) != 1 || notifier.sent[0] != enums.NotificationKindLike {
		t.Fatalf("expected one like notification, got %v", notifier.sent)
	}
}

func TestDeletePostOwnership(t *testing.T) {
	svc, posts, _ := newCommunityService(nil)
	ctx := context.Background()

	post, _ := svc.CreatePost(ctx, 1, "오늘의 출사 후기", "한강에서 찍었습니다")

	if err := svc.DeletePost(ctx, post.ID, 2, false); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("stranger delete should fail, got %v", err)
	}
	if err := svc.DeletePost(ctx, post.ID, 2, true); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := posts.GetByID(ctx, post.ID); !errors.Is(err, pgrepo.ErrPostNotFound) {
		t.Fatalf("post should be gone")
	}
}
