package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
	paymentsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/payments"
)

type memPaymentStore struct {
	payments map[string]model.Payment
}

func newMemPaymentStore() *memPaymentStore {
	return &memPaymentStore{payments: map[string]model.Payment{}}
}

func (s *memPaymentStore) Create(_ context.Context, id string, userID int64, provider string, amount, pointAmount int64) (model.Payment, error) {
	p := model.Payment{
		ID:          id,
		UserID:      userID,
		Provider:    provider,
		Amount:      amount,
		PointAmount: pointAmount,
		Status:      enums.PaymentStatusPending,
		CreatedAt:   time.Now(),
	}
	s.payments[id] = p
	return p, nil
}

func (s *memPaymentStore) GetByID(_ context.Context, id string) (model.Payment, error) {
	p, ok := s.payments[id]
	if !ok {
		return model.Payment{}, pgrepo.ErrPaymentNotFound
	}
	return p, nil
}

func (s *memPaymentStore) Confirm(_ context.Context, id, providerTxID string) (model.Payment, error) {
	p, ok := s.payments[id]
	if !ok {
		return model.Payment{}, pgrepo.ErrPaymentNotFound
	}
	if p.Status != enums.PaymentStatusPending {
		return model.Payment{}, pgrepo.ErrPaymentReplayed
	}
	p.Status = enums.PaymentStatusPaid
	p.ProviderTxID = &providerTxID
	s.payments[id] = p
	return p, nil
}

func (s *memPaymentStore) MarkFailed(_ context.Context, id string) error {
	p, ok := s.payments[id]
	if !ok {
		return pgrepo.ErrPaymentNotFound
	}
	p.Status = enums.PaymentStatusFailed
	s.payments[id] = p
	return nil
}

func (s *memPaymentStore) ListByUser(context.Context, int64, int, int) ([]model.Payment, error) {
	return nil, nil
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	store := newMemPaymentStore()
	payment, _ := store.Create(context.Background(), "pay-1", 7, "iamport", 5000, 5000)

	svc := paymentsvc.NewService(paymentsvc.Dependencies{
		Store:         store,
		WebhookSecret: "hook-secret",
	})
	h := NewPaymentsHandler(svc)

	resp := performWebhook(t, h, payment.ID, "wrong-secret")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestWebhookConfirmsAndAcksReplay(t *testing.T) {
	store := newMemPaymentStore()
	payment, _ := store.Create(context.Background(), "pay-2", 7, "iamport", 5000, 5000)

	svc := paymentsvc.NewService(paymentsvc.Dependencies{
		Store:         store,
		WebhookSecret: "hook-secret",
	})
	h := NewPaymentsHandler(svc)

	first := performWebhook(t, h, payment.ID, "hook-secret")
	if first.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", first.Code, first.Body.String())
	}

	second := performWebhook(t, h, payment.ID, "hook-secret")
	if second.Code != http.StatusOK {
		t.Fatalf("unexpected replay status %d: %s", second.Code, second.Body.String())
	}

	var payload struct {
		OK               bool `json:"ok"`
		AlreadyProcessed bool `json:"already_processed"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.OK || !payload.AlreadyProcessed {
		t.Fatalf("unexpected replay payload: %+v", payload)
	}
}

func performWebhook(t *testing.T, h *PaymentsHandler, paymentID, secret string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]string{
		"payment_id":     paymentID,
		"provider_tx_id": "tx-" + paymentID,
		"status":         "paid",
	})
	if err != nil {
		t.Fatalf("marshal webhook body: %v", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	req.Header.Set(webhookSignatureHeader, hex.EncodeToString(mac.Sum(nil)))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	return rec
}
