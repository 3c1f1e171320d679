package handlers

import (
	"errors"
	"net/http"

	analyticsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/analytics"
	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/dto"
)

type EventsHandler struct {
	service *analyticsvc.Service
}

func NewEventsHandler(service *analyticsvc.Service) *EventsHandler {
	return &EventsHandler{service: service}
}

// Batch accepts telemetry from both logged-in and anonymous clients, so
// the identity is optional here.
func (h *EventsHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req dto.EventsBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	var userID *int64
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		userID = &identity.UserID
	}

	events := make([]analyticsvc.BatchEvent, 0, len(req.Events))
	for _, e := range req.Events {
		events = append(events, analyticsvc.BatchEvent{
			Name:  e.Name,
			TS:    e.TS,
			Props: e.Props,
		})
	}

	if err := h.service.IngestBatch(r.Context(), userID, events); err != nil {
		if errors.Is(err, analyticsvc.ErrValidation) {
			writeBadRequest(w, "invalid event batch")
			return
		}
		writeInternal(w)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}
