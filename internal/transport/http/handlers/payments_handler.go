package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
	paymentsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/payments"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/dto"
)

const (
	webhookSignatureHeader = "X-Webhook-Signature"
	maxWebhookBodyBytes    = 64 << 10
)

type PaymentsHandler struct {
	service *paymentsvc.Service
}

func NewPaymentsHandler(service *paymentsvc.Service) *PaymentsHandler {
	return &PaymentsHandler{service: service}
}

func (h *PaymentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	var req dto.CreatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	payment, err := h.service.Create(r.Context(), identity.UserID, req.AmountWon)
	if err != nil {
		h.handlePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.CreatePaymentResponse{
		Payment:      payment,
		MerchantCode: h.service.MerchantCode(),
	})
}

// Webhook verifies the gateway signature over the raw body before any
// parsing. The gateway retries on non-2xx, so a replayed confirmation
// still acks with 200.
func (h *PaymentsHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		writeBadRequest(w, "unreadable body")
		return
	}

	var req dto.PaymentWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeBadRequest(w, "invalid webhook body")
		return
	}

	res, err := h.service.ConfirmWebhook(r.Context(), paymentsvc.WebhookInput{
		PaymentID:    req.PaymentID,
		ProviderTxID: req.ProviderTxID,
		Status:       req.Status,
		Body:         body,
		Signature:    r.Header.Get(webhookSignatureHeader),
	})
	if err != nil {
		h.handlePaymentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentWebhookResponse{
		OK:               true,
		Status:           string(res.Payment.Status),
		AlreadyProcessed: res.AlreadyProcessed,
	})
}

func (h *PaymentsHandler) DevTopup(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	var req dto.DevTopupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	payment, err := h.service.DevTopup(r.Context(), identity.UserID, req.Points)
	if err != nil {
		h.handlePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PaymentResponse{Payment: payment})
}

func (h *PaymentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	payment, err := h.service.Get(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		h.handlePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PaymentResponse{Payment: payment})
}

func (h *PaymentsHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	payments, err := h.service.History(r.Context(), identity.UserID, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.handlePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PaymentListResponse{Items: payments})
}

func (h *PaymentsHandler) handlePaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, paymentsvc.ErrValidation):
		writeBadRequest(w, "invalid payment payload")
	case errors.Is(err, paymentsvc.ErrBadSignature):
		writeUnauthorized(w, "webhook signature mismatch")
	case errors.Is(err, paymentsvc.ErrPaymentNotFound):
		writeNotFound(w, "payment not found")
	case errors.Is(err, paymentsvc.ErrDevTopupDisabled):
		writeForbidden(w, "dev topups are disabled")
	default:
		writeInternal(w)
	}
}
