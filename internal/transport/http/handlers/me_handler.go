package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
	pointssvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/points"
	userssvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/users"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/dto"
)

type MeHandler struct {
	users  *userssvc.Service
	points *pointssvc.Service
}

func NewMeHandler(users *userssvc.Service, points *pointssvc.Service) *MeHandler {
	return &MeHandler{users: users, points: points}
}

func (h *MeHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	profile, err := h.users.Profile(r.Context(), identity.UserID)
	if err != nil {
		h.handleUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ProfileResponse{Profile: profile})
}

func (h *MeHandler) UpdateNickname(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	var req dto.UpdateNicknameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.users.UpdateNickname(r.Context(), identity.UserID, req.Nickname); err != nil {
		h.handleUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *MeHandler) PointsBalance(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	balance, err := h.points.Balance(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w)
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{Balance: balance})
}

func (h *MeHandler) PointsHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	entries, err := h.points.History(r.Context(), identity.UserID, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		writeInternal(w)
		return
	}
	writeJSON(w, http.StatusOK, dto.PointHistoryResponse{Items: entries})
}

func (h *MeHandler) handleUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userssvc.ErrValidation):
		writeBadRequest(w, err.Error())
	case errors.Is(err, userssvc.ErrNotFound):
		writeNotFound(w, "user not found")
	default:
		writeInternal(w)
	}
}
