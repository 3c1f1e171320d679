package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
)

type stubPaymentStore struct {
	mu       sync.Mutex
	payments map[string]model.Payment
	credited map[int64]int64
}

func newStubPaymentStore() *stubPaymentStore {
	return &stubPaymentStore{
		payments: map[string]model.Payment{},
		credited: map[int64]int64{},
	}
}

func (s *stubPaymentStore) Create(_ context.Context, id string, userID int64, provider string, amount, pointAmount int64) (model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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

func (s *stubPaymentStore) GetByID(_ context.Context, id string) (model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return model.Payment{}, pgrepo.ErrPaymentNotFound
	}
	return p, nil
}

func (s *stubPaymentStore) Confirm(_ context.Context, id, providerTxID string) (model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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
	s.credited[p.UserID] += p.PointAmount
	return p, nil
}

func (s *stubPaymentStore) MarkFailed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return pgrepo.ErrPaymentNotFound
	}
	if p.Status == enums.PaymentStatusPending {
		p.Status = enums.PaymentStatusFailed
		s.payments[id] = p
	}
	return nil
}

func (s *stubPaymentStore) ListByUser(_ context.Context, userID int64, _, _ int) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Payment
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestConfirmWebhookCreditsOnce(t *testing.T) {
	store := newStubPaymentStore()
	svc := NewService(Dependencies{Store: store, WebhookSecret: "s3cret", PointsPerWon: 1})
	ctx := context.Background()

	payment, err := svc.Create(ctx, 7, 5000)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	body := []byte(`{"imp_uid":"imp_1"}`)
	in := WebhookInput{
		PaymentID:    payment.ID,
		ProviderTxID: "imp_1",
		Status:       "paid",
		Body:         body,
		Signature:    sign("s3cret", body),
	}

	res, err := svc.ConfirmWebhook(ctx, in)
	if err != nil {
		t.Fatalf("confirm webhook: %v", err)
	}
	if res.AlreadyProcessed {
		t.Fatalf("first confirm must not be flagged as replay")
	}
	if res.Payment.Status != enums.PaymentStatusPaid {
		t.Fatalf("status = %s, want paid", res.Payment.Status)
	}
	if store.credited[7] != 5000 {
		t.Fatalf("credited %d points, want 5000", store.credited[7])
	}

	// provider retries the callback
	res, err = svc.ConfirmWebhook(ctx, in)
	if err != nil {
		t.Fatalf("replayed webhook: %v", err)
	}
	if !res.AlreadyProcessed {
		t.Fatalf("replay must be acknowledged as already processed")
	}
	if store.credited[7] != 5000 {
		t.Fatalf("replay credited again: %d", store.credited[7])
	}
}

func TestConfirmWebhookRejectsBadSignature(t *testing.T) {
	store := newStubPaymentStore()
	svc := NewService(Dependencies{Store: store, WebhookSecret: "s3cret"})

	body := []byte(`{"imp_uid":"imp_1"}`)
	_, err := svc.ConfirmWebhook(context.Background(), WebhookInput{
		PaymentID:    "p1",
		ProviderTxID: "imp_1",
		Status:       "paid",
		Body:         body,
		Signature:    sign("wrong-secret", body),
	})
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected signature rejection, got %v", err)
	}
}

func TestConfirmWebhookMarksFailure(t *testing.T) {
	store := newStubPaymentStore()
	svc := NewService(Dependencies{Store: store})
	ctx := context.Background()

	payment, err := svc.Create(ctx, 7, 1000)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	res, err := svc.ConfirmWebhook(ctx, WebhookInput{
		PaymentID:    payment.ID,
		ProviderTxID: "imp_2",
		Status:       "cancelled",
	})
	if err != nil {
		t.Fatalf("failed webhook: %v", err)
	}
	if res.Payment.Status != enums.PaymentStatusFailed {
		t.Fatalf("status = %s, want failed", res.Payment.Status)
	}
	if store.credited[7] != 0 {
		t.Fatalf("failed payment must not credit, got %d", store.credited[7])
	}
}

func TestDevTopupHonorsFlag(t *testing.T) {
	store := newStubPaymentStore()
	svc := NewService(Dependencies{Store: store, AllowDevTopups: false})

	if _, err := svc.DevTopup(context.Background(), 7, 100); !errors.Is(err, ErrDevTopupDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}

	svc = NewService(Dependencies{Store: store, AllowDevTopups: true})
	payment, err := svc.DevTopup(context.Background(), 7, 100)
	if err != nil {
		t.Fatalf("dev topup: %v", err)
	}
	if payment.Status != enums.PaymentStatusPaid {
		t.Fatalf("status = %s, want paid", payment.Status)
	}
	if store.credited[7] != 100 {
		t.Fatalf("credited %d points, want 100", store.credited[7])
	}
}

func TestGetHidesOtherUsersPayments(t *testing.T) {
	store := newStubPaymentStore()
	svc := NewService(Dependencies{Store: store})
	ctx := context.Background()

	payment, err := svc.Create(ctx, 7, 1000)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if _, err := svc.Get(ctx, 8, payment.ID); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
	if _, err := svc.Get(ctx, 7, payment.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
}
