package dto

import "github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"

type ProfileResponse struct {
	Profile model.Profile `json:"profile"`
}

type UpdateNicknameRequest struct {
	Nickname string `json:"nickname"`
}
