package auction

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/rules"
)

// Store is the transactional backend. Every method that moves money or
// changes lot state runs as a single transaction behind the photo row
// lock, so concurrent calls against one lot are serialized.
type Store interface {
	CreateLot(ctx context.Context, p CreateLotParams, startAt, endAt time.Time) (model.Photo, error)
	GetPhoto(ctx context.Context, photoID int64) (model.Photo, error)
	PlaceBid(ctx context.Context, p PlaceBidParams) (PlaceBidResult, error)
	BuyNow(ctx context.Context, photoID, buyerID int64, now time.Time) (SaleResult, error)
	Relist(ctx context.Context, p RelistParams) (model.Photo, error)
	DueForSettle(ctx context.Context, now time.Time, limit int) ([]int64, error)
	Settle(ctx context.Context, photoID int64, now time.Time) (SettleResult, error)
	ListBidsByPhoto(ctx context.Context, photoID int64, limit int) ([]model.Bid, error)
	ListBidsByUser(ctx context.Context, userID int64, limit int) ([]model.Bid, error)
}

// Notifier fans a user-facing event out to the notification feed and any
// live connections. Implementations must not block on slow consumers.
type Notifier interface {
	Notify(ctx context.Context, userID int64, kind enums.NotificationKind, payload map[string]any)
}

type Dependencies struct {
	Store        Store
	Notifier     Notifier
	Logger       *zap.Logger
	MinIncrement int64
	DefaultDays  int
	BidRetries   int
}

type Service struct {
	store        Store
	notifier     Notifier
	log          *zap.Logger
	minIncrement int64
	defaultDays  int
	bidRetries   int
	now          func() time.Time
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	minIncrement := deps.MinIncrement
	if minIncrement <= 0 {
		minIncrement = rules.DefaultMinIncrement
	}
	defaultDays := deps.DefaultDays
	if defaultDays <= 0 {
		defaultDays = 7
	}
	retries := deps.BidRetries
	if retries <= 0 {
		retries = 3
	}

	return &Service{
		store:        deps.Store,
		notifier:     deps.Notifier,
		log:          log,
		minIncrement: minIncrement,
		defaultDays:  defaultDays,
		bidRetries:   retries,
		now:          time.Now,
	}
}

// CreateLot validates the listing terms and opens the auction window.
// The lot starts in pending status until moderation clears it.
func (s *Service) CreateLot(ctx context.Context, p CreateLotParams) (model.Photo, error) {
	if p.DurationDays == 0 {
		p.DurationDays = s.defaultDays
	}
	if err := rules.ValidateRelist(p.StartPrice, p.BuyNowPrice, p.DurationDays); err != nil {
		return model.Photo{}, err
	}
	if err := rules.ValidateTitle(p.Title); err != nil {
		return model.Photo{}, err
	}
	if p.Description != "" {
		if err := rules.ValidateContent(p.Description, 0, 2000); err != nil {
			return model.Photo{}, err
		}
	}

	startAt, endAt := rules.RelistWindow(s.now(), p.DurationDays)
	photo, err := s.store.CreateLot(ctx, p, startAt, endAt)
	if err != nil {
		return model.Photo{}, fmt.Errorf("create lot: %w", err)
	}
	return photo, nil
}

// PlaceBid runs the bid transaction with a bounded retry for transient
// contention. Business rejections never retry.
func (s *Service) PlaceBid(ctx context.Context, photoID, bidderID, amount int64) (PlaceBidResult, error) {
	p := PlaceBidParams{
		PhotoID:      photoID,
		BidderID:     bidderID,
		Amount:       amount,
		MinIncrement: s.minIncrement,
	}

	var (
		res PlaceBidResult
		err error
	)
	for attempt := 0; attempt < s.bidRetries; attempt++ {
		p.Now = s.now()
		res, err = s.store.PlaceBid(ctx, p)
		if err == nil {
			break
		}
		if !retryable(err) {
			return PlaceBidResult{}, err
		}
		s.log.Warn("bid retry after contention",
			zap.Int64("photo_id", photoID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	if err != nil {
		return PlaceBidResult{}, fmt.Errorf("place bid: %w", err)
	}

	s.notifyBidResult(ctx, res)
	return res, nil
}

func (s *Service) BuyNow(ctx context.Context, photoID, buyerID int64) (SaleResult, error) {
	var (
		sale SaleResult
		err  error
	)
	for attempt := 0; attempt < s.bidRetries; attempt++ {
		sale, err = s.store.BuyNow(ctx, photoID, buyerID, s.now())
		if err == nil {
			break
		}
		if !retryable(err) {
			return SaleResult{}, err
		}
	}
	if err != nil {
		return SaleResult{}, fmt.Errorf("buy now: %w", err)
	}

	s.notifySale(ctx, sale)
	return sale, nil
}

// Relist re-opens an expired, unsold lot under new terms.
func (s *Service) Relist(ctx context.Context, photoID, sellerID, startPrice, buyNowPrice int64, durationDays int) (model.Photo, error) {
	if err := rules.ValidateRelist(startPrice, buyNowPrice, durationDays); err != nil {
		return model.Photo{}, err
	}

	photo, err := s.store.Relist(ctx, RelistParams{
		PhotoID:      photoID,
		SellerID:     sellerID,
		StartPrice:   startPrice,
		BuyNowPrice:  buyNowPrice,
		DurationDays: durationDays,
		Now:          s.now(),
	})
	if err != nil {
		return model.Photo{}, fmt.Errorf("relist: %w", err)
	}
	return photo, nil
}

// SettleDue closes every lot whose timer elapsed. Called by the worker
// on a ticker; each lot settles under its own lock, so a failure on one
// does not block the rest.
func (s *Service) SettleDue(ctx context.Context, limit int) (int, error) {
	now := s.now()
	ids, err := s.store.DueForSettle(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("list due lots: %w", err)
	}

	settled := 0
	for _, id := range ids {
		res, err := s.store.Settle(ctx, id, now)
		if err != nil {
			if errors.Is(err, ErrNotEnded) || errors.Is(err, ErrNotActive) {
				continue // raced with a bid extension or a buy-now
			}
			s.log.Error("settle lot", zap.Int64("photo_id", id), zap.Error(err))
			continue
		}
		settled++
		s.notifySettle(ctx, res)
	}

	return settled, nil
}

func (s *Service) GetPhoto(ctx context.Context, photoID int64) (model.Photo, error) {
	return s.store.GetPhoto(ctx, photoID)
}

// Remaining derives the countdown for a lot from its absolute deadline.
func (s *Service) Remaining(photo model.Photo) time.Duration {
	return rules.Remaining(photo.EndAt, s.now())
}

func (s *Service) ListBids(ctx context.Context, photoID int64, limit int) ([]model.Bid, error) {
	return s.store.ListBidsByPhoto(ctx, photoID, limit)
}

func (s *Service) ListUserBids(ctx context.Context, userID int64, limit int) ([]model.Bid, error) {
	return s.store.ListBidsByUser(ctx, userID, limit)
}

func (s *Service) notifyBidResult(ctx context.Context, res PlaceBidResult) {
	if s.notifier == nil {
		return
	}

	if res.Sale != nil {
		s.notifySale(ctx, *res.Sale)
		return
	}

	if res.OutbidUserID > 0 {
		s.notifier.Notify(ctx, res.OutbidUserID, enums.NotificationKindOutbid, map[string]any{
			"photo_id":  strconv.FormatInt(res.Photo.ID, 10),
			"new_price": res.Photo.CurrentPrice,
		})
	}
}

func (s *Service) notifySale(ctx context.Context, sale SaleResult) {
	if s.notifier == nil {
		return
	}

	payload := map[string]any{
		"photo_id": strconv.FormatInt(sale.Photo.ID, 10),
		"price":    sale.Price,
	}
	s.notifier.Notify(ctx, sale.Photo.SellerID, enums.NotificationKindPhotoSold, payload)
	s.notifier.Notify(ctx, sale.BuyerID, enums.NotificationKindAuctionWon, payload)
	for _, loser := range sale.LoserUserIDs {
		s.notifier.Notify(ctx, loser, enums.NotificationKindOutbid, payload)
	}
}

func (s *Service) notifySettle(ctx context.Context, res SettleResult) {
	if s.notifier == nil {
		return
	}

	payload := map[string]any{
		"photo_id": strconv.FormatInt(res.Photo.ID, 10),
		"price":    res.Price,
	}
	if res.WinnerUserID > 0 {
		s.notifier.Notify(ctx, res.Photo.SellerID, enums.NotificationKindPhotoSold, payload)
		s.notifier.Notify(ctx, res.WinnerUserID, enums.NotificationKindAuctionWon, payload)
		return
	}
	s.notifier.Notify(ctx, res.Photo.SellerID, enums.NotificationKindPhotoExpired, payload)
}

// retryable reports whether the error is transient database contention
// rather than a business rejection.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
