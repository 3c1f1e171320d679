// Package workerapp runs the background loops: auction settlement,
// moderation auto-decisions and rejected media cleanup. It is a
// separate binary so a slow sweep never competes with request traffic.
package workerapp

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/config"
	s3infra "github.com/luckyyyj77-wq/pho-ma-sub000/internal/infra/s3"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/jobs/cleanup"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
	auctionsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auction"
	mediasvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/media"
	modsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/moderation"
	notifysvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/notifications"
)

const (
	settleBatch       = 100
	moderationBatch   = 50
	cleanupEvery      = 24 * time.Hour
	cleanupRetention  = 30 * 24 * time.Hour
	defaultTickPeriod = 30 * time.Second
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	postgres   *pgxpool.Pool
	auctions   *auctionsvc.Service
	moderation *modsvc.Service
	cleanupJob *cleanup.Job
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	notificationRepo := pgrepo.NewNotificationRepo(pool)
	auctionStore := pgrepo.NewAuctionStore(pool)
	moderationRepo := pgrepo.NewModerationRepo(pool)
	photoRepo := pgrepo.NewPhotoRepo(pool)

	// Worker notifications land in the table only; live sockets belong
	// to the api process.
	notificationService := notifysvc.NewService(notifysvc.Dependencies{
		Store:  notificationRepo,
		Logger: log,
	})

	auctionService := auctionsvc.NewService(auctionsvc.Dependencies{
		Store:        auctionStore,
		Notifier:     notificationService,
		Logger:       log,
		MinIncrement: cfg.Auction.MinIncrement,
		DefaultDays:  cfg.Auction.DefaultDays,
		BidRetries:   cfg.Auction.BidRetries,
	})

	moderationService := modsvc.NewService(modsvc.Dependencies{
		Store:      moderationRepo,
		Photos:     photoRepo,
		Notifier:   notificationService,
		Logger:     log,
		AutoDecide: cfg.Moderate.AutoDecide,
	})

	var cleanupJob *cleanup.Job
	if s3Client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, rejected media cleanup disabled", zap.Error(err))
	} else {
		storage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
		cleanupJob = cleanup.NewRejectedMediaJob(photoRepo, storage, cleanupRetention, log)
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		postgres:   pool,
		auctions:   auctionService,
		moderation: moderationService,
		cleanupJob: cleanupJob,
	}, nil
}

// Run blocks until the context is cancelled. Settlement has its own
// cadence so expired lots close promptly even when the moderation
// sweep interval is long.
func (a *App) Run(ctx context.Context) error {
	settleEvery := a.cfg.Auction.SettleInterval
	if settleEvery <= 0 {
		settleEvery = defaultTickPeriod
	}
	sweepEvery := a.cfg.Worker.Interval
	if sweepEvery <= 0 {
		sweepEvery = defaultTickPeriod
	}

	settleTicker := time.NewTicker(settleEvery)
	defer settleTicker.Stop()

	sweepTicker := time.NewTicker(sweepEvery)
	defer sweepTicker.Stop()

	cleanupTicker := time.NewTicker(cleanupEvery)
	defer cleanupTicker.Stop()

	a.logger.Info("worker started",
		zap.Duration("settle_interval", settleEvery),
		zap.Duration("sweep_interval", sweepEvery))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-settleTicker.C:
			a.settlePass(ctx)
		case <-sweepTicker.C:
			a.sweepPass(ctx)
		case <-cleanupTicker.C:
			if a.cleanupJob != nil {
				if err := a.cleanupJob.Run(ctx); err != nil {
					a.logger.Error("rejected media cleanup failed", zap.Error(err))
				}
			}
		}
	}
}

func (a *App) settlePass(ctx context.Context) {
	settled, err := a.auctions.SettleDue(ctx, settleBatch)
	if err != nil {
		a.logger.Error("settle pass failed", zap.Error(err))
	} else if settled > 0 {
		a.logger.Info("lots settled", zap.Int("count", settled))
	}
}

func (a *App) sweepPass(ctx context.Context) {
	decided, err := a.moderation.SweepPending(ctx, moderationBatch)
	if err != nil {
		a.logger.Error("moderation sweep failed", zap.Error(err))
	} else if decided > 0 {
		a.logger.Info("moderation items auto-decided", zap.Int("count", decided))
	}
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}
