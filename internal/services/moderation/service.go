package moderation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/rules"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
)

const signedURLTTL = 5 * time.Minute

var (
	ErrAlreadyDecided = errors.New("moderation item already decided")
	ErrReasonRequired = errors.New("rejection reason is required")
)

type Store interface {
	GetByID(ctx context.Context, id int64) (model.ModerationItem, error)
	ApplyDecision(ctx context.Context, itemID int64, status enums.ModerationStatus, reviewerID *int64, reason *string, decidedAt time.Time) (model.ModerationItem, error)
	ListByStatus(ctx context.Context, status enums.ModerationStatus, limit, offset int) ([]model.ModerationItem, error)
	CountByStatus(ctx context.Context, status enums.ModerationStatus) (int64, error)
}

type PhotoStore interface {
	GetByID(ctx context.Context, photoID int64) (model.Photo, error)
}

// Scorer is the external safety model. It returns a score in [0,1]
// (higher is safer) plus machine-detected issue tags such as "face:1".
type Scorer interface {
	Score(ctx context.Context, objectKey string) (float64, []string, error)
}

type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, kind enums.NotificationKind, payload map[string]any)
}

type Dependencies struct {
	Store      Store
	Photos     PhotoStore
	Scorer     Scorer
	Signer     URLSigner
	Notifier   Notifier
	Logger     *zap.Logger
	AutoDecide bool
}

type Service struct {
	store      Store
	photos     PhotoStore
	scorer     Scorer
	signer     URLSigner
	notifier   Notifier
	log        *zap.Logger
	autoDecide bool
	now        func() time.Time
}

// QueueItem is one entry in the admin review queue, with a short-lived
// signed URL so reviewers can see the actual image.
type QueueItem struct {
	Item     model.ModerationItem
	Severity rules.Severity
	PhotoURL string
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		store:      deps.Store,
		photos:     deps.Photos,
		scorer:     deps.Scorer,
		signer:     deps.Signer,
		notifier:   deps.Notifier,
		log:        log,
		autoDecide: deps.AutoDecide,
		now:        time.Now,
	}
}

// ScoreUpload runs the safety model against an uploaded object before
// the lot is created. A scorer outage degrades to manual review rather
// than blocking the listing.
func (s *Service) ScoreUpload(ctx context.Context, objectKey string) (float64, []string) {
	if s.scorer == nil {
		return rules.AutoRejectScore, nil
	}

	score, issues, err := s.scorer.Score(ctx, objectKey)
	if err != nil {
		s.log.Warn("safety scorer unavailable, deferring to manual review",
			zap.String("object_key", objectKey),
			zap.Error(err))
		return rules.AutoRejectScore, nil
	}
	return score, issues
}

// AutoDecide applies the automated rule to one queued item. Items that
// land in reviewing wait for an admin; terminal outcomes are applied and
// the seller is notified.
func (s *Service) AutoDecide(ctx context.Context, itemID int64) (enums.ModerationStatus, error) {
	if !s.autoDecide {
		return enums.ModerationStatusPending, nil
	}

	item, err := s.store.GetByID(ctx, itemID)
	if err != nil {
		return "", err
	}
	if item.Status != enums.ModerationStatusPending {
		return item.Status, nil
	}

	status := rules.DecideModeration(item.SafetyScore, item.DetectedIssues)

	var reason *string
	if status == enums.ModerationStatusRejected {
		text := autoRejectReason(item.DetectedIssues)
		reason = &text
	}

	decided, err := s.store.ApplyDecision(ctx, itemID, status, nil, reason, s.now())
	if err != nil {
		return "", fmt.Errorf("apply auto decision: %w", err)
	}

	s.notifyDecision(ctx, decided)
	return status, nil
}

// SweepPending runs the automated rule over queued items. Called from
// the worker loop so a scorer hiccup at upload time never strands a lot
// in pending.
func (s *Service) SweepPending(ctx context.Context, limit int) (int, error) {
	if !s.autoDecide {
		return 0, nil
	}
	if limit <= 0 {
		limit = 50
	}

	items, err := s.store.ListByStatus(ctx, enums.ModerationStatusPending, limit, 0)
	if err != nil {
		return 0, fmt.Errorf("list pending items: %w", err)
	}

	decided := 0
	for _, item := range items {
		status, err := s.AutoDecide(ctx, item.ID)
		if err != nil {
			s.log.Warn("auto decision failed",
				zap.Int64("item_id", item.ID),
				zap.Error(err))
			continue
		}
		if status == enums.ModerationStatusApproved || status == enums.ModerationStatusRejected {
			decided++
		}
	}
	return decided, nil
}

// Approve is the manual override for items sitting in review.
func (s *Service) Approve(ctx context.Context, itemID, reviewerID int64) error {
	item, err := s.store.ApplyDecision(ctx, itemID, enums.ModerationStatusApproved, &reviewerID, nil, s.now())
	if err != nil {
		return s.mapDecisionErr(err)
	}

	s.notifyDecision(ctx, item)
	return nil
}

func (s *Service) Reject(ctx context.Context, itemID, reviewerID int64, reasonCode, reasonText string) error {
	text := strings.TrimSpace(reasonText)
	if text == "" {
		template, ok := rejectReasonTemplates[strings.ToUpper(strings.TrimSpace(reasonCode))]
		if !ok {
			return ErrReasonRequired
		}
		text = template.ReasonText
	}

	item, err := s.store.ApplyDecision(ctx, itemID, enums.ModerationStatusRejected, &reviewerID, &text, s.now())
	if err != nil {
		return s.mapDecisionErr(err)
	}

	s.notifyDecision(ctx, item)
	return nil
}

// Queue pages through items awaiting a human decision.
func (s *Service) Queue(ctx context.Context, status enums.ModerationStatus, limit, offset int) ([]QueueItem, error) {
	if status == "" {
		status = enums.ModerationStatusReviewing
	}

	items, err := s.store.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		qi := QueueItem{Item: item, Severity: rules.ScoreSeverity(item.SafetyScore)}

		if s.photos != nil && s.signer != nil {
			if photo, err := s.photos.GetByID(ctx, item.PhotoID); err == nil && photo.ObjectKey != "" {
				if url, signErr := s.signer.PresignGet(ctx, photo.ObjectKey, signedURLTTL); signErr == nil {
					qi.PhotoURL = url
				}
			}
		}

		out = append(out, qi)
	}
	return out, nil
}

func (s *Service) QueueSize(ctx context.Context) (int64, error) {
	reviewing, err := s.store.CountByStatus(ctx, enums.ModerationStatusReviewing)
	if err != nil {
		return 0, err
	}
	pending, err := s.store.CountByStatus(ctx, enums.ModerationStatusPending)
	if err != nil {
		return 0, err
	}
	return reviewing + pending, nil
}

func (s *Service) notifyDecision(ctx context.Context, item model.ModerationItem) {
	if s.notifier == nil {
		return
	}

	payload := map[string]any{
		"photo_id": strconv.FormatInt(item.PhotoID, 10),
	}
	switch item.Status {
	case enums.ModerationStatusApproved:
		s.notifier.Notify(ctx, item.SellerID, enums.NotificationKindApproved, payload)
	case enums.ModerationStatusRejected:
		if item.ReasonText != nil {
			payload["reason"] = *item.ReasonText
		}
		s.notifier.Notify(ctx, item.SellerID, enums.NotificationKindRejected, payload)
	}
}

func (s *Service) mapDecisionErr(err error) error {
	if errors.Is(err, pgrepo.ErrModerationDecided) {
		return ErrAlreadyDecided
	}
	return err
}

func autoRejectReason(issues []string) string {
	if rules.HasFaceIssue(issues) {
		return rejectReasonTemplates["FACE_DETECTED"].ReasonText
	}
	return rejectReasonTemplates["LOW_SAFETY_SCORE"].ReasonText
}
