package dto

import "github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"

type NotificationListResponse struct {
	Items []model.Notification `json:"items"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
