package dto

import "github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

type PointHistoryResponse struct {
	Items []model.PointEntry `json:"items"`
}
