package handlers

import (
	"errors"
	"net/http"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/rules"
	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
	communitysvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/community"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/dto"
	httperrors "github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/errors"
)

type CommunityHandler struct {
	service *communitysvc.Service
}

func NewCommunityHandler(service *communitysvc.Service) *CommunityHandler {
	return &CommunityHandler{service: service}
}

func (h *CommunityHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	var req dto.CreatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	post, err := h.service.CreatePost(r.Context(), identity.UserID, req.Title, req.Content)
	if err != nil {
		h.handleCommunityError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.PostResponse{Post: post})
}

func (h *CommunityHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req dto.UpdatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.service.UpdatePost(r.Context(), postID, identity.UserID, req.Title, req.Content); err != nil {
		h.handleCommunityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *CommunityHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	isAdmin := identity.Role == string(enums.RoleAdmin)
	if err := h.service.DeletePost(r.Context(), postID, identity.UserID, isAdmin); err != nil {
		h.handleCommunityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *CommunityHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context(), r.URL.Query().Get("sort"), queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		h.handleCommunityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PostListResponse{Items: posts})
}

func (h *CommunityHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	post, err := h.service.GetPost(r.Context(), postID, viewerKey(r))
	if err != nil {
		h.handleCommunityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PostResponse{Post: post})
}

func (h *CommunityHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	liked, err := h.service.ToggleLike(r.Context(), postID, identity.UserID)
	if err != nil {
		h.handleCommunityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.LikeResponse{Liked: liked})
}

func (h *CommunityHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req dto.CreateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	comment, err := h.service.AddComment(r.Context(), postID, identity.UserID, req.Content)
	if err != nil {
		h.handleCommunityError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.CommentResponse{Comment: comment})
}

func (h *CommunityHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}
	commentID, err := pathID(r, "comment_id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := h.service.DeleteComment(r.Context(), commentID, identity.UserID); err != nil {
		h.handleCommunityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *CommunityHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	comments, err := h.service.ListComments(r.Context(), postID, queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		h.handleCommunityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CommentListResponse{Items: comments})
}

func (h *CommunityHandler) handleCommunityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rules.ErrProfanityDetected):
		httperrors.Write(w, http.StatusUnprocessableEntity, httperrors.APIError{
			Code:    "PROFANITY",
			Message: "text contains banned words",
		})
	case errors.Is(err, communitysvc.ErrValidation):
		writeBadRequest(w, err.Error())
	case errors.Is(err, communitysvc.ErrPostNotFound):
		writeNotFound(w, "post not found")
	case errors.Is(err, communitysvc.ErrCommentNotFound):
		writeNotFound(w, "comment not found")
	default:
		writeInternal(w)
	}
}
