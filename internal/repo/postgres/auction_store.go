package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/rules"
	auctionsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auction"
)

// AuctionStore composes the repos into the atomic operations the auction
// service needs. Every money-moving method opens one transaction, takes
// the photo row lock first and the user row lock second, and commits or
// rolls back as a unit.
type AuctionStore struct {
	pool       *pgxpool.Pool
	photos     *PhotoRepo
	bids       *BidRepo
	users      *UserRepo
	points     *PointRepo
	moderation *ModerationRepo
}

func NewAuctionStore(pool *pgxpool.Pool) *AuctionStore {
	return &AuctionStore{
		pool:       pool,
		photos:     NewPhotoRepo(pool),
		bids:       NewBidRepo(pool),
		users:      NewUserRepo(pool),
		points:     NewPointRepo(pool),
		moderation: NewModerationRepo(pool),
	}
}

// CreateLot inserts the photo and its moderation queue row together so a
// lot can never exist without a pending review.
func (s *AuctionStore) CreateLot(ctx context.Context, p auctionsvc.CreateLotParams, startAt, endAt time.Time) (model.Photo, error) {
	var photo model.Photo
	err := WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		created, err := s.photos.Create(ctx, tx, CreatePhotoParams{
			SellerID:    p.SellerID,
			CategoryID:  p.CategoryID,
			Title:       p.Title,
			Description: p.Description,
			ObjectKey:   p.ObjectKey,
			StartPrice:  p.StartPrice,
			BuyNowPrice: p.BuyNowPrice,
			StartAt:     startAt,
			EndAt:       endAt,
		})
		if err != nil {
			return err
		}
		photo = created

		if _, err := s.moderation.Enqueue(ctx, tx, created.ID, p.SellerID, p.SafetyScore, p.DetectedIssues); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return model.Photo{}, err
	}
	return photo, nil
}

func (s *AuctionStore) GetPhoto(ctx context.Context, photoID int64) (model.Photo, error) {
	return s.photos.GetByID(ctx, photoID)
}

func (s *AuctionStore) PlaceBid(ctx context.Context, p auctionsvc.PlaceBidParams) (auctionsvc.PlaceBidResult, error) {
	var res auctionsvc.PlaceBidResult
	err := WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		photo, err := s.photos.GetForUpdate(ctx, tx, p.PhotoID)
		if err != nil {
			return err
		}
		if photo.Status != enums.PhotoStatusActive {
			return auctionsvc.ErrNotActive
		}
		if rules.Ended(photo.EndAt, p.Now) {
			return auctionsvc.ErrEnded
		}
		if photo.SellerID == p.BidderID {
			return auctionsvc.ErrOwnLot
		}

		outcome, err := rules.DecideBid(p.Amount, photo.CurrentPrice, photo.BuyNowPrice, p.MinIncrement)
		if err != nil {
			return err
		}

		prev, err := s.bids.HighestActive(ctx, tx, photo.ID)
		hasPrev := err == nil
		if err != nil && !errors.Is(err, ErrBidNotFound) {
			return err
		}

		if outcome == rules.BidIsBuyNow {
			sale, err := s.sellTx(ctx, tx, photo, p.BidderID, photo.BuyNowPrice, prev, hasPrev)
			if err != nil {
				return err
			}
			res = auctionsvc.PlaceBidResult{Outcome: outcome, Photo: sale.Photo, Sale: &sale}
			return nil
		}

		// Lock the bidder after the photo; this order is fixed across
		// all auction transactions.
		if _, err := s.users.GetForUpdate(ctx, tx, p.BidderID); err != nil {
			return err
		}

		// Release the previous leader's hold before the balance check so
		// a self-outbid only needs the difference.
		if hasPrev {
			if _, err := s.points.Append(ctx, tx, prev.UserID, prev.Amount, enums.PointReasonBidRelease, &prev.ID); err != nil {
				return err
			}
			if err := s.bids.SetStatus(ctx, tx, prev.ID, enums.BidStatusOutbid); err != nil {
				return err
			}
		}

		balance, err := s.points.BalanceTx(ctx, tx, p.BidderID)
		if err != nil {
			return err
		}
		if balance < p.Amount {
			return auctionsvc.ErrInsufficientPoints
		}

		bid, err := s.bids.Create(ctx, tx, photo.ID, p.BidderID, p.Amount)
		if err != nil {
			return err
		}
		if _, err := s.points.Append(ctx, tx, p.BidderID, -p.Amount, enums.PointReasonBidHold, &bid.ID); err != nil {
			return err
		}
		if err := s.photos.UpdateCurrentPrice(ctx, tx, photo.ID, p.Amount); err != nil {
			return err
		}

		photo.CurrentPrice = p.Amount
		res = auctionsvc.PlaceBidResult{Outcome: outcome, Photo: photo, Bid: bid}
		if hasPrev && prev.UserID != p.BidderID {
			res.OutbidUserID = prev.UserID
		}
		return nil
	})
	if err != nil {
		return auctionsvc.PlaceBidResult{}, err
	}
	return res, nil
}

func (s *AuctionStore) BuyNow(ctx context.Context, photoID, buyerID int64, now time.Time) (auctionsvc.SaleResult, error) {
	var sale auctionsvc.SaleResult
	err := WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		photo, err := s.photos.GetForUpdate(ctx, tx, photoID)
		if err != nil {
			return err
		}
		if photo.Status != enums.PhotoStatusActive {
			return auctionsvc.ErrNotActive
		}
		if rules.Ended(photo.EndAt, now) {
			return auctionsvc.ErrEnded
		}
		if photo.SellerID == buyerID {
			return auctionsvc.ErrOwnLot
		}

		prev, err := s.bids.HighestActive(ctx, tx, photo.ID)
		hasPrev := err == nil
		if err != nil && !errors.Is(err, ErrBidNotFound) {
			return err
		}

		sale, err = s.sellTx(ctx, tx, photo, buyerID, photo.BuyNowPrice, prev, hasPrev)
		return err
	})
	if err != nil {
		return auctionsvc.SaleResult{}, err
	}
	return sale, nil
}

// sellTx completes an immediate sale at price inside the caller's
// transaction. The caller must already hold the photo row lock.
func (s *AuctionStore) sellTx(ctx context.Context, tx pgx.Tx, photo model.Photo, buyerID, price int64, prev model.Bid, hasPrev bool) (auctionsvc.SaleResult, error) {
	if _, err := s.users.GetForUpdate(ctx, tx, buyerID); err != nil {
		return auctionsvc.SaleResult{}, err
	}

	// The open hold comes back first; if the buyer is the current
	// leader, this frees their own held points for the purchase.
	if hasPrev {
		if _, err := s.points.Append(ctx, tx, prev.UserID, prev.Amount, enums.PointReasonBidRelease, &prev.ID); err != nil {
			return auctionsvc.SaleResult{}, err
		}
	}

	balance, err := s.points.BalanceTx(ctx, tx, buyerID)
	if err != nil {
		return auctionsvc.SaleResult{}, err
	}
	if balance < price {
		return auctionsvc.SaleResult{}, auctionsvc.ErrInsufficientPoints
	}

	if _, err := s.points.Append(ctx, tx, buyerID, -price, enums.PointReasonPurchase, &photo.ID); err != nil {
		return auctionsvc.SaleResult{}, err
	}
	if _, err := s.points.Append(ctx, tx, photo.SellerID, price, enums.PointReasonSaleIncome, &photo.ID); err != nil {
		return auctionsvc.SaleResult{}, err
	}

	closed, err := s.bids.CloseAll(ctx, tx, photo.ID)
	if err != nil {
		return auctionsvc.SaleResult{}, err
	}

	if _, err := tx.Exec(ctx, `
UPDATE photos SET status = 'sold', current_price = $2, updated_at = NOW()
WHERE id = $1
`, photo.ID, price); err != nil {
		return auctionsvc.SaleResult{}, fmt.Errorf("mark photo sold: %w", err)
	}

	photo.Status = enums.PhotoStatusSold
	photo.CurrentPrice = price

	losers := make([]int64, 0, len(closed))
	seen := map[int64]bool{buyerID: true}
	for _, b := range closed {
		if !seen[b.UserID] {
			seen[b.UserID] = true
			losers = append(losers, b.UserID)
		}
	}

	return auctionsvc.SaleResult{
		Photo:        photo,
		BuyerID:      buyerID,
		Price:        price,
		LoserUserIDs: losers,
	}, nil
}

func (s *AuctionStore) Relist(ctx context.Context, p auctionsvc.RelistParams) (model.Photo, error) {
	var photo model.Photo
	err := WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.photos.GetForUpdate(ctx, tx, p.PhotoID)
		if err != nil {
			return err
		}
		if current.SellerID != p.SellerID {
			return auctionsvc.ErrNotSeller
		}
		if current.Status != enums.PhotoStatusExpired {
			return auctionsvc.ErrNotExpired
		}

		startAt, endAt := rules.RelistWindow(p.Now, p.DurationDays)
		if err := s.photos.Relist(ctx, tx, p.PhotoID, p.StartPrice, p.BuyNowPrice, startAt, endAt); err != nil {
			return err
		}

		current.StartPrice = p.StartPrice
		current.CurrentPrice = p.StartPrice
		current.BuyNowPrice = p.BuyNowPrice
		current.StartAt = startAt
		current.EndAt = endAt
		current.Status = enums.PhotoStatusActive
		current.RelistCount++
		photo = current
		return nil
	})
	if err != nil {
		return model.Photo{}, err
	}
	return photo, nil
}

func (s *AuctionStore) DueForSettle(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	return s.photos.ListDueForSettle(ctx, now, limit)
}

// Settle closes one ended lot: the highest open bid wins and its hold
// becomes the payment, or the lot expires unsold.
func (s *AuctionStore) Settle(ctx context.Context, photoID int64, now time.Time) (auctionsvc.SettleResult, error) {
	var res auctionsvc.SettleResult
	err := WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		photo, err := s.photos.GetForUpdate(ctx, tx, photoID)
		if err != nil {
			return err
		}
		if photo.Status != enums.PhotoStatusActive {
			return auctionsvc.ErrNotActive
		}
		if !rules.Ended(photo.EndAt, now) {
			return auctionsvc.ErrNotEnded
		}

		winner, err := s.bids.HighestActive(ctx, tx, photo.ID)
		if err != nil {
			if errors.Is(err, ErrBidNotFound) {
				if err := s.photos.SetStatus(ctx, tx, photo.ID, enums.PhotoStatusExpired); err != nil {
					return err
				}
				photo.Status = enums.PhotoStatusExpired
				res = auctionsvc.SettleResult{Photo: photo}
				return nil
			}
			return err
		}

		// The winner's hold is the payment; only the seller side moves.
		if _, err := s.points.Append(ctx, tx, photo.SellerID, winner.Amount, enums.PointReasonSaleIncome, &photo.ID); err != nil {
			return err
		}

		losers, err := s.bids.Settle(ctx, tx, photo.ID, winner.ID)
		if err != nil {
			return err
		}
		if err := s.photos.SetStatus(ctx, tx, photo.ID, enums.PhotoStatusSold); err != nil {
			return err
		}

		photo.Status = enums.PhotoStatusSold
		loserIDs := make([]int64, 0, len(losers))
		seen := map[int64]bool{winner.UserID: true}
		for _, b := range losers {
			if !seen[b.UserID] {
				seen[b.UserID] = true
				loserIDs = append(loserIDs, b.UserID)
			}
		}

		res = auctionsvc.SettleResult{
			Photo:        photo,
			WinnerUserID: winner.UserID,
			WinnerBidID:  winner.ID,
			Price:        winner.Amount,
			LoserUserIDs: loserIDs,
		}
		return nil
	})
	if err != nil {
		return auctionsvc.SettleResult{}, err
	}
	return res, nil
}

func (s *AuctionStore) ListBidsByPhoto(ctx context.Context, photoID int64, limit int) ([]model.Bid, error) {
	return s.bids.ListByPhoto(ctx, photoID, limit)
}

func (s *AuctionStore) ListBidsByUser(ctx context.Context, userID int64, limit int) ([]model.Bid, error) {
	return s.bids.ListByUser(ctx, userID, limit)
}
