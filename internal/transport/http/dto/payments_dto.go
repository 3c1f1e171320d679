package dto

import "github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"

type CreatePaymentRequest struct {
	AmountWon int64 `json:"amount_won"`
}

type DevTopupRequest struct {
	Points int64 `json:"points"`
}

type PaymentResponse struct {
	Payment model.Payment `json:"payment"`
}

// CreatePaymentResponse carries the merchant code the checkout SDK
// needs alongside the pending payment row.
type CreatePaymentResponse struct {
	Payment      model.Payment `json:"payment"`
	MerchantCode string        `json:"merchant_code,omitempty"`
}

type PaymentListResponse struct {
	Items []model.Payment `json:"items"`
}

// PaymentWebhookRequest mirrors the gateway callback body. The raw bytes
// are what gets HMAC-verified, this struct only names the fields we read.
type PaymentWebhookRequest struct {
	PaymentID    string `json:"payment_id"`
	ProviderTxID string `json:"provider_tx_id"`
	Status       string `json:"status"`
}

type PaymentWebhookResponse struct {
	OK               bool   `json:"ok"`
	Status           string `json:"status"`
	AlreadyProcessed bool   `json:"already_processed,omitempty"`
}
