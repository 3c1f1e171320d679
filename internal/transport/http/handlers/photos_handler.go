package handlers

import (
	"errors"
	"net/http"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/rules"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
	auctionsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auction"
	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
	mediasvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/media"
	modsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/moderation"
	ratesvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/rate"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/dto"
	httperrors "github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/errors"
)

const maxBidHistory = 50

// PhotosHandler covers the seller side of a lot: upload, listing,
// bidding, buy-now and relist.
type PhotosHandler struct {
	auctions   *auctionsvc.Service
	media      *mediasvc.Service
	moderation *modsvc.Service
	limiter    *ratesvc.Limiter
}

func NewPhotosHandler(auctions *auctionsvc.Service, media *mediasvc.Service, moderation *modsvc.Service, limiter *ratesvc.Limiter) *PhotosHandler {
	return &PhotosHandler{
		auctions:   auctions,
		media:      media,
		moderation: moderation,
		limiter:    limiter,
	}
}

func (h *PhotosHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeBadRequest(w, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "file part is required")
		return
	}
	defer file.Close()

	upload, err := h.media.UploadPhoto(r.Context(), identity.UserID, header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		h.handleUploadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UploadResponse{
		ObjectKey: upload.ObjectKey,
		URL:       upload.URL,
	})
}

// Create opens the auction. The upload is scored before the lot row
// exists so the moderation queue entry carries the model's verdict.
func (h *PhotosHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	var req dto.CreatePhotoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.ObjectKey == "" || req.CategoryID <= 0 {
		writeBadRequest(w, "object_key and category_id are required")
		return
	}

	score, issues := h.moderation.ScoreUpload(r.Context(), req.ObjectKey)

	photo, err := h.auctions.CreateLot(r.Context(), auctionsvc.CreateLotParams{
		SellerID:       identity.UserID,
		CategoryID:     req.CategoryID,
		Title:          req.Title,
		Description:    req.Description,
		ObjectKey:      req.ObjectKey,
		StartPrice:     req.StartPrice,
		BuyNowPrice:    req.BuyNowPrice,
		DurationDays:   req.DurationDays,
		SafetyScore:    score,
		DetectedIssues: issues,
	})
	if err != nil {
		h.handleAuctionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

func (h *PhotosHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}
	photoID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req dto.PlaceBidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if h.limiter != nil {
		retryAfter, allowed, err := h.limiter.AllowBid(r.Context(), identity.UserID)
		if err != nil {
			writeInternal(w)
			return
		}
		if !allowed {
			writeTooFast(w, retryAfter)
			return
		}
	}

	res, err := h.auctions.PlaceBid(r.Context(), photoID, identity.UserID, req.Amount)
	if err != nil {
		h.handleAuctionError(w, err)
		return
	}

	resp := dto.PlaceBidResponse{
		Outcome: bidOutcomeString(res.Outcome),
		Photo:   res.Photo,
	}
	if res.Bid.ID != 0 {
		bid := res.Bid
		resp.Bid = &bid
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PhotosHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}
	photoID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	sale, err := h.auctions.BuyNow(r.Context(), photoID, identity.UserID)
	if err != nil {
		h.handleAuctionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BuyNowResponse{
		Photo: sale.Photo,
		Price: sale.Price,
	})
}

func (h *PhotosHandler) Relist(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}
	photoID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req dto.RelistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	photo, err := h.auctions.Relist(r.Context(), photoID, identity.UserID, req.StartPrice, req.BuyNowPrice, req.DurationDays)
	if err != nil {
		h.handleAuctionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

func (h *PhotosHandler) ListBids(w http.ResponseWriter, r *http.Request) {
	photoID, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	bids, err := h.auctions.ListBids(r.Context(), photoID, maxBidHistory)
	if err != nil {
		h.handleAuctionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BidListResponse{Items: bids})
}

func (h *PhotosHandler) MyBids(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	bids, err := h.auctions.ListUserBids(r.Context(), identity.UserID, maxBidHistory)
	if err != nil {
		h.handleAuctionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BidListResponse{Items: bids})
}

func (h *PhotosHandler) handleUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mediasvc.ErrFileTooLarge):
		httperrors.Write(w, http.StatusRequestEntityTooLarge, httperrors.APIError{
			Code:    "FILE_TOO_LARGE",
			Message: "file exceeds the upload limit",
		})
	case errors.Is(err, mediasvc.ErrUnsupportedExt):
		httperrors.Write(w, http.StatusUnsupportedMediaType, httperrors.APIError{
			Code:    "UNSUPPORTED_MEDIA",
			Message: "only jpeg, png and webp images are accepted",
		})
	case errors.Is(err, mediasvc.ErrValidation):
		writeBadRequest(w, "invalid upload payload")
	default:
		writeInternal(w)
	}
}

func (h *PhotosHandler) handleAuctionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pgrepo.ErrPhotoNotFound):
		writeNotFound(w, "photo not found")
	case errors.Is(err, pgrepo.ErrCategoryNotFound):
		writeBadRequest(w, "unknown category")
	case errors.Is(err, rules.ErrProfanityDetected):
		httperrors.Write(w, http.StatusUnprocessableEntity, httperrors.APIError{
			Code:    "PROFANITY",
			Message: "text contains banned words",
		})
	case errors.Is(err, rules.ErrInvalidAmount),
		errors.Is(err, rules.ErrInvalidDuration),
		errors.Is(err, rules.ErrBuyNowNotAbove),
		errors.Is(err, rules.ErrTextTooShort),
		errors.Is(err, rules.ErrTextTooLong):
		writeBadRequest(w, err.Error())
	case errors.Is(err, rules.ErrBidTooLow),
		errors.Is(err, rules.ErrBidBelowIncrement):
		writeConflict(w, "BID_TOO_LOW", err.Error())
	case errors.Is(err, auctionsvc.ErrNotActive),
		errors.Is(err, auctionsvc.ErrEnded),
		errors.Is(err, auctionsvc.ErrNotExpired):
		writeConflict(w, "LOT_STATE", err.Error())
	case errors.Is(err, auctionsvc.ErrOwnLot),
		errors.Is(err, auctionsvc.ErrNotSeller):
		writeForbidden(w, err.Error())
	case errors.Is(err, auctionsvc.ErrInsufficientPoints):
		httperrors.Write(w, http.StatusPaymentRequired, httperrors.APIError{
			Code:    "INSUFFICIENT_POINTS",
			Message: "not enough points",
		})
	default:
		writeInternal(w)
	}
}

func bidOutcomeString(outcome rules.BidOutcome) string {
	switch outcome {
	case rules.BidAccepted:
		return "accepted"
	case rules.BidIsBuyNow:
		return "buy_now"
	default:
		return "rejected"
	}
}
