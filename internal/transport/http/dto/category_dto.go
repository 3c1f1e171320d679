package dto

import "github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"

type CreateCategoryRequest struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

type UpdateCategoryRequest struct {
	Name     string `json:"name"`
	Icon     string `json:"icon,omitempty"`
	Color    string `json:"color,omitempty"`
	IsActive bool   `json:"is_active"`
}

type CategoryResponse struct {
	Category model.Category `json:"category"`
}

type CategoryListResponse struct {
	Items []model.Category `json:"items"`
}
