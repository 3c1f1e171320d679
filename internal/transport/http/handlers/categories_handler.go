package handlers

import (
	"context"
	"errors"
	"net/http"

	categoriessvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/categories"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/dto"
)

type CategoriesHandler struct {
	service *categoriessvc.Service
}

func NewCategoriesHandler(service *categoriessvc.Service) *CategoriesHandler {
	return &CategoriesHandler{service: service}
}

func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context(), queryBool(r, "include_inactive"))
	if err != nil {
		h.handleCategoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CategoryListResponse{Items: categories})
}

func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	category, err := h.service.Create(r.Context(), categoriessvc.CreateParams{
		Slug:  req.Slug,
		Name:  req.Name,
		Icon:  req.Icon,
		Color: req.Color,
	})
	if err != nil {
		h.handleCategoryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.CategoryResponse{Category: category})
}

func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req dto.UpdateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.service.Update(r.Context(), id, categoriessvc.UpdateParams{
		Name:     req.Name,
		Icon:     req.Icon,
		Color:    req.Color,
		IsActive: req.IsActive,
	}); err != nil {
		h.handleCategoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *CategoriesHandler) MoveUp(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.service.MoveUp)
}

func (h *CategoriesHandler) MoveDown(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.service.MoveDown)
}

func (h *CategoriesHandler) move(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := fn(r.Context(), id); err != nil {
		h.handleCategoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *CategoriesHandler) handleCategoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, categoriessvc.ErrValidation):
		writeBadRequest(w, err.Error())
	case errors.Is(err, categoriessvc.ErrNotFound):
		writeNotFound(w, "category not found")
	case errors.Is(err, categoriessvc.ErrExists):
		writeConflict(w, "CATEGORY_EXISTS", "category slug already exists")
	default:
		writeInternal(w)
	}
}
