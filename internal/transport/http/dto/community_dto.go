package dto

import "github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"

type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UpdatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type PostResponse struct {
	Post model.CommunityPost `json:"post"`
}

type PostListResponse struct {
	Items []model.CommunityPost `json:"items"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}

type CommentResponse struct {
	Comment model.Comment `json:"comment"`
}

type CommentListResponse struct {
	Items []model.Comment `json:"items"`
}
