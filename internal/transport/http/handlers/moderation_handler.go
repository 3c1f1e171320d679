package handlers

import (
	"errors"
	"net/http"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
	modsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/moderation"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/dto"
)

// ModerationHandler is the admin review console: the pending queue plus
// the approve and reject decisions.
type ModerationHandler struct {
	service *modsvc.Service
}

func NewModerationHandler(service *modsvc.Service) *ModerationHandler {
	return &ModerationHandler{service: service}
}

func (h *ModerationHandler) Queue(w http.ResponseWriter, r *http.Request) {
	status := enums.ModerationStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = enums.ModerationStatusReviewing
	}

	items, err := h.service.Queue(r.Context(), status, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.handleModerationError(w, err)
		return
	}
	total, err := h.service.QueueSize(r.Context())
	if err != nil {
		h.handleModerationError(w, err)
		return
	}

	resp := dto.ModerationQueueResponse{
		Items: make([]dto.ModerationQueueItemResponse, 0, len(items)),
		Total: total,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.ModerationQueueItemResponse{
			Item:     item.Item,
			Severity: string(item.Severity),
			PhotoURL: item.PhotoURL,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ModerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := h.service.Approve(r.Context(), itemID, identity.UserID); err != nil {
		h.handleModerationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ModerationDecisionResponse{
		ItemID: itemID,
		Status: string(enums.ModerationStatusApproved),
	})
}

func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req dto.ModerationRejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.service.Reject(r.Context(), itemID, identity.UserID, req.ReasonCode, req.ReasonText); err != nil {
		h.handleModerationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ModerationDecisionResponse{
		ItemID: itemID,
		Status: string(enums.ModerationStatusRejected),
	})
}

func (h *ModerationHandler) handleModerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pgrepo.ErrModerationNotFound):
		writeNotFound(w, "moderation item not found")
	case errors.Is(err, modsvc.ErrAlreadyDecided):
		writeConflict(w, "ALREADY_DECIDED", "moderation item already decided")
	case errors.Is(err, modsvc.ErrReasonRequired):
		writeBadRequest(w, "rejection reason is required")
	default:
		writeInternal(w)
	}
}
