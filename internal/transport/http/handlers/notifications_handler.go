package handlers

import (
	"errors"
	"net/http"

	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
	notifysvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/notifications"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/dto"
)

type NotificationsHandler struct {
	service *notifysvc.Service
}

func NewNotificationsHandler(service *notifysvc.Service) *NotificationsHandler {
	return &NotificationsHandler{service: service}
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	items, err := h.service.List(r.Context(), identity.UserID, queryBool(r, "unread_only"), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		writeInternal(w)
		return
	}
	writeJSON(w, http.StatusOK, dto.NotificationListResponse{Items: items})
}

func (h *NotificationsHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	count, err := h.service.UnreadCount(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w)
		return
	}
	writeJSON(w, http.StatusOK, dto.UnreadCountResponse{Count: count})
}

func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := h.service.MarkRead(r.Context(), identity.UserID, id); err != nil {
		if errors.Is(err, pgrepo.ErrNotificationNotFound) {
			writeNotFound(w, "notification not found")
			return
		}
		writeInternal(w)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	if err := h.service.MarkAllRead(r.Context(), identity.UserID); err != nil {
		writeInternal(w)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}
