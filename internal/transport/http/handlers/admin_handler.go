package handlers

import (
	"errors"
	"net/http"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	userssvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/users"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/dto"
)

type AdminHandler struct {
	users *userssvc.Service
}

func NewAdminHandler(users *userssvc.Service) *AdminHandler {
	return &AdminHandler{users: users}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.ListUsers(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.handleAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AdminUserListResponse{
		Items: page.Users,
		Total: page.Total,
	})
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		h.handleAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AdminUserResponse{User: user})
}

func (h *AdminHandler) SetBanned(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req dto.SetBannedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.users.SetBanned(r.Context(), userID, req.Banned); err != nil {
		h.handleAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req dto.SetRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.users.SetRole(r.Context(), userID, enums.Role(req.Role)); err != nil {
		h.handleAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) handleAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userssvc.ErrValidation):
		writeBadRequest(w, err.Error())
	case errors.Is(err, userssvc.ErrNotFound):
		writeNotFound(w, "user not found")
	default:
		writeInternal(w)
	}
}
