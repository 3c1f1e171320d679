package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrBadSignature     = errors.New("webhook signature mismatch")
	ErrDevTopupDisabled = errors.New("dev topups are disabled")
)

// Store is the payment table plus the confirm coordinator. Confirm is
// atomic: marking paid and crediting the ledger happen in one
// transaction, and a replay returns pgrepo.ErrPaymentReplayed.
type Store interface {
	Create(ctx context.Context, id string, userID int64, provider string, amount, pointAmount int64) (model.Payment, error)
	GetByID(ctx context.Context, id string) (model.Payment, error)
	Confirm(ctx context.Context, id, providerTxID string) (model.Payment, error)
	MarkFailed(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Payment, error)
}

type Dependencies struct {
	Store          Store
	Logger         *zap.Logger
	Provider       string
	MerchantCode   string
	PointsPerWon   int64
	WebhookSecret  string
	AllowDevTopups bool
}

type Service struct {
	store          Store
	log            *zap.Logger
	provider       string
	merchantCode   string
	pointsPerWon   int64
	webhookSecret  string
	allowDevTopups bool
	now            func() time.Time
}

type WebhookInput struct {
	PaymentID    string
	ProviderTxID string
	Status       string
	// Body is the raw request body the signature was computed over.
	Body      []byte
	Signature string
}

type WebhookResult struct {
	Payment          model.Payment
	AlreadyProcessed bool
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	pointsPerWon := deps.PointsPerWon
	if pointsPerWon <= 0 {
		pointsPerWon = 1
	}

	return &Service{
		store:          deps.Store,
		log:            log,
		provider:       deps.Provider,
		merchantCode:   deps.MerchantCode,
		pointsPerWon:   pointsPerWon,
		webhookSecret:  deps.WebhookSecret,
		allowDevTopups: deps.AllowDevTopups,
		now:            time.Now,
	}
}

// Create opens a pending topup. The client completes the charge with
// the provider and the webhook settles it.
func (s *Service) Create(ctx context.Context, userID, amountWon int64) (model.Payment, error) {
	if userID <= 0 || amountWon <= 0 {
		return model.Payment{}, ErrValidation
	}

	id := uuid.NewString()
	payment, err := s.store.Create(ctx, id, userID, s.provider, amountWon, amountWon*s.pointsPerWon)
	if err != nil {
		return model.Payment{}, fmt.Errorf("create payment: %w", err)
	}
	return payment, nil
}

// ConfirmWebhook settles a payment from a provider callback. Replayed
// callbacks are acknowledged without crediting twice, so the provider
// can retry safely.
func (s *Service) ConfirmWebhook(ctx context.Context, in WebhookInput) (WebhookResult, error) {
	if !s.verifySignature(in.Body, in.Signature) {
		return WebhookResult{}, ErrBadSignature
	}

	paymentID := strings.TrimSpace(in.PaymentID)
	providerTxID := strings.TrimSpace(in.ProviderTxID)
	if paymentID == "" || providerTxID == "" {
		return WebhookResult{}, ErrValidation
	}

	if !isSuccessStatus(in.Status) {
		if err := s.store.MarkFailed(ctx, paymentID); err != nil && !errors.Is(err, pgrepo.ErrPaymentNotFound) {
			return WebhookResult{}, fmt.Errorf("mark payment failed: %w", err)
		}
		payment, err := s.store.GetByID(ctx, paymentID)
		if err != nil {
			return WebhookResult{}, s.mapStoreErr(err)
		}
		return WebhookResult{Payment: payment}, nil
	}

	payment, err := s.store.Confirm(ctx, paymentID, providerTxID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPaymentReplayed) {
			existing, getErr := s.store.GetByID(ctx, paymentID)
			if getErr != nil {
				return WebhookResult{}, s.mapStoreErr(getErr)
			}
			return WebhookResult{Payment: existing, AlreadyProcessed: true}, nil
		}
		return WebhookResult{}, s.mapStoreErr(err)
	}

	s.log.Info("payment confirmed",
		zap.String("payment_id", payment.ID),
		zap.Int64("user_id", payment.UserID),
		zap.Int64("points", payment.PointAmount))
	return WebhookResult{Payment: payment}, nil
}

// DevTopup credits points without a real charge. Only enabled in dev
// environments.
func (s *Service) DevTopup(ctx context.Context, userID, points int64) (model.Payment, error) {
	if !s.allowDevTopups {
		return model.Payment{}, ErrDevTopupDisabled
	}
	if userID <= 0 || points <= 0 {
		return model.Payment{}, ErrValidation
	}

	id := uuid.NewString()
	payment, err := s.store.Create(ctx, id, userID, "dev", points, points)
	if err != nil {
		return model.Payment{}, fmt.Errorf("create dev topup: %w", err)
	}

	confirmed, err := s.store.Confirm(ctx, payment.ID, "dev-"+id)
	if err != nil {
		return model.Payment{}, fmt.Errorf("confirm dev topup: %w", err)
	}
	return confirmed, nil
}

// MerchantCode is the provider account the client passes to the
// checkout SDK when completing the charge.
func (s *Service) MerchantCode() string {
	return s.merchantCode
}

func (s *Service) Get(ctx context.Context, userID int64, paymentID string) (model.Payment, error) {
	payment, err := s.store.GetByID(ctx, paymentID)
	if err != nil {
		return model.Payment{}, s.mapStoreErr(err)
	}
	if payment.UserID != userID {
		return model.Payment{}, ErrPaymentNotFound
	}
	return payment, nil
}

func (s *Service) History(ctx context.Context, userID int64, limit, offset int) ([]model.Payment, error) {
	return s.store.ListByUser(ctx, userID, limit, offset)
}

// verifySignature checks the hex HMAC-SHA256 the provider sends with
// each callback. An empty configured secret disables verification for
// local development.
func (s *Service) verifySignature(body []byte, signature string) bool {
	if s.webhookSecret == "" {
		return true
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

func (s *Service) mapStoreErr(err error) error {
	if errors.Is(err, pgrepo.ErrPaymentNotFound) {
		return ErrPaymentNotFound
	}
	return err
}

func isSuccessStatus(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid", "success", "succeeded":
		return true
	default:
		return false
	}
}
