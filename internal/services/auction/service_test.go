package auction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/rules"
)

type stubStore struct {
	mu          sync.Mutex
	placeBid    func(p PlaceBidParams) (PlaceBidResult, error)
	settle      func(photoID int64) (SettleResult, error)
	dueIDs      []int64
	bidAttempts int
}

func (s *stubStore) CreateLot(_ context.Context, p CreateLotParams, startAt, endAt time.Time) (model.Photo, error) {
	return model.Photo{
		ID:          1,
		SellerID:    p.SellerID,
		Title:       p.Title,
		StartPrice:  p.StartPrice,
		BuyNowPrice: p.BuyNowPrice,
		StartAt:     startAt,
		EndAt:       endAt,
		Status:      enums.PhotoStatusPending,
	}, nil
}

func (s *stubStore) GetPhoto(context.Context, int64) (model.Photo, error) {
	return model.Photo{}, nil
}

func (s *stubStore) PlaceBid(_ context.Context, p PlaceBidParams) (PlaceBidResult, error) {
	s.mu.Lock()
	s.bidAttempts++
	s.mu.Unlock()
	return s.placeBid(p)
}

func (s *stubStore) BuyNow(context.Context, int64, int64, time.Time) (SaleResult, error) {
	return SaleResult{}, nil
}

func (s *stubStore) Relist(_ context.Context, p RelistParams) (model.Photo, error) {
	return model.Photo{ID: p.PhotoID, Status: enums.PhotoStatusActive}, nil
}

func (s *stubStore) DueForSettle(context.Context, time.Time, int) ([]int64, error) {
	return s.dueIDs, nil
}

func (s *stubStore) Settle(_ context.Context, photoID int64, _ time.Time) (SettleResult, error) {
	return s.settle(photoID)
}

func (s *stubStore) ListBidsByPhoto(context.Context, int64, int) ([]model.Bid, error) {
	return nil, nil
}

func (s *stubStore) ListBidsByUser(context.Context, int64, int) ([]model.Bid, error) {
	return nil, nil
}

type notifyCall struct {
	UserID int64
	Kind   enums.NotificationKind
}

type captureNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (n *captureNotifier) Notify(_ context.Context, userID int64, kind enums.NotificationKind, _ map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{UserID: userID, Kind: kind})
}

func TestPlaceBidNotifiesOutbidUser(t *testing.T) {
	store := &stubStore{
		placeBid: func(p PlaceBidParams) (PlaceBidResult, error) {
			return PlaceBidResult{
				Outcome:      rules.BidAccepted,
				Photo:        model.Photo{ID: p.PhotoID, CurrentPrice: p.Amount},
				Bid:          model.Bid{ID: 2, PhotoID: p.PhotoID, UserID: p.BidderID, Amount: p.Amount},
				OutbidUserID: 77,
			}, nil
		},
	}
	notifier := &captureNotifier{}
	svc := NewService(Dependencies{Store: store, Notifier: notifier})

	if _, err := svc.PlaceBid(context.Background(), 1, 42, 500); err != nil {
		t.Fatalf("place bid: %v", err)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.calls))
	}
	if notifier.calls[0].UserID != 77 || notifier.calls[0].Kind != enums.NotificationKindOutbid {
		t.Fatalf("unexpected notification %+v", notifier.calls[0])
	}
}

func TestPlaceBidDoesNotRetryBusinessRejections(t *testing.T) {
	store := &stubStore{
		placeBid: func(PlaceBidParams) (PlaceBidResult, error) {
			return PlaceBidResult{}, rules.ErrBidTooLow
		},
	}
	svc := NewService(Dependencies{Store: store, BidRetries: 3})

	_, err := svc.PlaceBid(context.Background(), 1, 42, 10)
	if !errors.Is(err, rules.ErrBidTooLow) {
		t.Fatalf("expected bid too low, got %v", err)
	}
	if store.bidAttempts != 1 {
		t.Fatalf("business rejection must not retry, got %d attempts", store.bidAttempts)
	}
}

func TestPlaceBidRetriesSerializationFailures(t *testing.T) {
	attempts := 0
	store := &stubStore{}
	store.placeBid = func(p PlaceBidParams) (PlaceBidResult, error) {
		attempts++
		if attempts < 3 {
			return PlaceBidResult{}, &pgconn.PgError{Code: "40001"}
		}
		return PlaceBidResult{
			Outcome: rules.BidAccepted,
			Photo:   model.Photo{ID: p.PhotoID, CurrentPrice: p.Amount},
		}, nil
	}
	svc := NewService(Dependencies{Store: store, BidRetries: 3})

	if _, err := svc.PlaceBid(context.Background(), 1, 42, 500); err != nil {
		t.Fatalf("place bid after retries: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestPlaceBidGivesUpAfterRetryBudget(t *testing.T) {
	store := &stubStore{
		placeBid: func(PlaceBidParams) (PlaceBidResult, error) {
			return PlaceBidResult{}, &pgconn.PgError{Code: "40P01"}
		},
	}
	svc := NewService(Dependencies{Store: store, BidRetries: 2})

	if _, err := svc.PlaceBid(context.Background(), 1, 42, 500); err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if store.bidAttempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", store.bidAttempts)
	}
}

func TestCreateLotValidatesTerms(t *testing.T) {
	svc := NewService(Dependencies{Store: &stubStore{}})

	_, err := svc.CreateLot(context.Background(), CreateLotParams{
		SellerID:     1,
		Title:        "새벽 한강",
		StartPrice:   100,
		BuyNowPrice:  100, // must be strictly above
		DurationDays: 7,
	})
	if !errors.Is(err, rules.ErrBuyNowNotAbove) {
		t.Fatalf("expected buy-now validation, got %v", err)
	}

	_, err = svc.CreateLot(context.Background(), CreateLotParams{
		SellerID:     1,
		Title:        "새벽 한강",
		StartPrice:   100,
		BuyNowPrice:  500,
		DurationDays: 4, // not an allowed duration
	})
	if !errors.Is(err, rules.ErrInvalidDuration) {
		t.Fatalf("expected duration validation, got %v", err)
	}

	_, err = svc.CreateLot(context.Background(), CreateLotParams{
		SellerID:     1,
		Title:        "시발 사진",
		StartPrice:   100,
		BuyNowPrice:  500,
		DurationDays: 7,
	})
	if !errors.Is(err, rules.ErrProfanityDetected) {
		t.Fatalf("expected profanity rejection, got %v", err)
	}
}

func TestSettleDueNotifiesWinnerAndSeller(t *testing.T) {
	store := &stubStore{
		dueIDs: []int64{5},
		settle: func(photoID int64) (SettleResult, error) {
			return SettleResult{
				Photo:        model.Photo{ID: photoID, SellerID: 1, Status: enums.PhotoStatusSold},
				WinnerUserID: 9,
				Price:        900,
			}, nil
		},
	}
	notifier := &captureNotifier{}
	svc := NewService(Dependencies{Store: store, Notifier: notifier})

	settled, err := svc.SettleDue(context.Background(), 100)
	if err != nil {
		t.Fatalf("settle due: %v", err)
	}
	if settled != 1 {
		t.Fatalf("expected 1 settled, got %d", settled)
	}

	kinds := map[enums.NotificationKind]int64{}
	for _, call := range notifier.calls {
		kinds[call.Kind] = call.UserID
	}
	if kinds[enums.NotificationKindPhotoSold] != 1 {
		t.Fatalf("seller was not notified of sale: %+v", notifier.calls)
	}
	if kinds[enums.NotificationKindAuctionWon] != 9 {
		t.Fatalf("winner was not notified: %+v", notifier.calls)
	}
}

func TestSettleDueExpiresUnsoldLot(t *testing.T) {
	store := &stubStore{
		dueIDs: []int64{5},
		settle: func(photoID int64) (SettleResult, error) {
			return SettleResult{
				Photo: model.Photo{ID: photoID, SellerID: 1, Status: enums.PhotoStatusExpired},
			}, nil
		},
	}
	notifier := &captureNotifier{}
	svc := NewService(Dependencies{Store: store, Notifier: notifier})

	if _, err := svc.SettleDue(context.Background(), 100); err != nil {
		t.Fatalf("settle due: %v", err)
	}

	if len(notifier.calls) != 1 || notifier.calls[0].Kind != enums.NotificationKindPhotoExpired {
		t.Fatalf("expected one expiry notification, got %+v", notifier.calls)
	}
}
