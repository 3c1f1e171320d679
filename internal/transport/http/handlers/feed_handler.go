package handlers

import (
	"errors"
	"net/http"
	"strconv"

	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
	feedsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/feed"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/dto"
)

type FeedHandler struct {
	service *feedsvc.Service
}

func NewFeedHandler(service *feedsvc.Service) *FeedHandler {
	return &FeedHandler{service: service}
}

func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cards, err := h.service.List(r.Context(), feedsvc.FeedParams{
		CategoryID: queryInt64(r, "category_id"),
		SellerID:   queryInt64(r, "seller_id"),
		Status:     q.Get("status"),
		Search:     q.Get("q"),
		Sort:       q.Get("sort"),
		Limit:      queryInt(r, "limit", 0),
		Offset:     queryInt(r, "offset", 0),
	})
	if err != nil {
		h.handleFeedError(w, err)
		return
	}

	items := make([]dto.PhotoCardResponse, 0, len(cards))
	for _, card := range cards {
		items = append(items, cardResponse(card))
	}
	writeJSON(w, http.StatusOK, dto.PhotoListResponse{Items: items})
}

func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	photoID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	card, err := h.service.Get(r.Context(), photoID, viewerKey(r))
	if err != nil {
		h.handleFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cardResponse(card))
}

func (h *FeedHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}
	photoID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	liked, err := h.service.ToggleLike(r.Context(), photoID, identity.UserID)
	if err != nil {
		h.handleFeedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.LikeResponse{Liked: liked})
}

func (h *FeedHandler) handleFeedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, feedsvc.ErrNotFound):
		writeNotFound(w, "photo not found")
	case errors.Is(err, feedsvc.ErrValidation):
		writeBadRequest(w, "invalid feed query")
	default:
		writeInternal(w)
	}
}

func cardResponse(card feedsvc.Card) dto.PhotoCardResponse {
	return dto.PhotoCardResponse{
		Photo:        card.Photo,
		PhotoURL:     card.PhotoURL,
		RemainingSec: int64(card.Remaining.Seconds()),
	}
}

// viewerKey dedupes view counting: the user id for logged-in traffic,
// the client address otherwise.
func viewerKey(r *http.Request) string {
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		return "u" + strconv.FormatInt(identity.UserID, 10)
	}
	return r.RemoteAddr
}
