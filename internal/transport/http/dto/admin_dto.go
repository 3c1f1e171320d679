package dto

import "github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"

type AdminUserListResponse struct {
	Items []model.User `json:"items"`
	Total int64        `json:"total"`
}

type AdminUserResponse struct {
	User model.User `json:"user"`
}

type SetBannedRequest struct {
	Banned bool `json:"banned"`
}

type SetRoleRequest struct {
	Role string `json:"role"`
}
