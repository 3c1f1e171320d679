package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/config"
	oauthinfra "github.com/luckyyyj77-wq/pho-ma-sub000/internal/infra/oauth"
	s3infra "github.com/luckyyyj77-wq/pho-ma-sub000/internal/infra/s3"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/infra/scorer"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/infra/sms"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
	redrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/redis"
	analyticsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/analytics"
	auctionsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auction"
	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
	categoriessvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/categories"
	communitysvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/community"
	feedsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/feed"
	mediasvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/media"
	modsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/moderation"
	notifysvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/notifications"
	paymentsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/payments"
	pointssvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/points"
	ratesvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/rate"
	userssvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/users"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/ws"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	otpRepo := redrepo.NewOTPRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)

	kst, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		kst = time.UTC
	}
	viewRepo := redrepo.NewViewRepo(redisClient, kst)

	userRepo := pgrepo.NewUserRepo(pool)
	pointRepo := pgrepo.NewPointRepo(pool)
	photoRepo := pgrepo.NewPhotoRepo(pool)
	auctionStore := pgrepo.NewAuctionStore(pool)
	moderationRepo := pgrepo.NewModerationRepo(pool)
	categoryRepo := pgrepo.NewCategoryRepo(pool)
	postRepo := pgrepo.NewPostRepo(pool)
	commentRepo := pgrepo.NewCommentRepo(pool)
	notificationRepo := pgrepo.NewNotificationRepo(pool)
	paymentRepo := pgrepo.NewPaymentRepo(pool)
	eventRepo := pgrepo.NewEventRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	mediaService := mediasvc.NewService(mediaStorage)

	hub := ws.NewHub(log)
	notificationService := notifysvc.NewService(notifysvc.Dependencies{
		Store:  notificationRepo,
		Pusher: hub,
		Logger: log,
	})

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	var oauthProviders []authsvc.OAuthProvider
	if cfg.Auth.Google.ClientID != "" {
		oauthProviders = append(oauthProviders, oauthinfra.NewGoogle(oauthinfra.Config{
			ClientID:     cfg.Auth.Google.ClientID,
			ClientSecret: cfg.Auth.Google.ClientSecret,
			RedirectURL:  cfg.Auth.Google.RedirectURL,
		}))
	}
	if cfg.Auth.Kakao.ClientID != "" {
		oauthProviders = append(oauthProviders, oauthinfra.NewKakao(oauthinfra.Config{
			ClientID:     cfg.Auth.Kakao.ClientID,
			ClientSecret: cfg.Auth.Kakao.ClientSecret,
			RedirectURL:  cfg.Auth.Kakao.RedirectURL,
		}))
	}
	authService := authsvc.NewService(authsvc.Dependencies{
		JWT:         jwtManager,
		Sessions:    sessionRepo,
		Users:       userRepo,
		OTP:         otpRepo,
		Sender:      sms.NewLogSender(log),
		OAuth:       oauthProviders,
		RefreshTTL:  cfg.Auth.RefreshTTL,
		OTPTTL:      cfg.Auth.OTPTTL,
		OTPMaxTries: cfg.Auth.OTPMaxTries,
		SignupBonus: cfg.Points.SignupBonus,
	})

	auctionService := auctionsvc.NewService(auctionsvc.Dependencies{
		Store:        auctionStore,
		Notifier:     notificationService,
		Logger:       log,
		MinIncrement: cfg.Auction.MinIncrement,
		DefaultDays:  cfg.Auction.DefaultDays,
		BidRetries:   cfg.Auction.BidRetries,
	})

	var safetyScorer modsvc.Scorer
	if cfg.Moderate.ScorerURL != "" {
		safetyScorer = scorer.NewClient(cfg.Moderate.ScorerURL, cfg.Moderate.ScorerTimeout)
	}
	moderationService := modsvc.NewService(modsvc.Dependencies{
		Store:      moderationRepo,
		Photos:     photoRepo,
		Scorer:     safetyScorer,
		Signer:     mediaService,
		Notifier:   notificationService,
		Logger:     log,
		AutoDecide: cfg.Moderate.AutoDecide,
	})

	feedService := feedsvc.NewService(feedsvc.Dependencies{
		Photos: photoRepo,
		Views:  viewRepo,
		Signer: mediaService,
		Logger: log,
		Cfg: feedsvc.Config{
			PageSize: cfg.Limits.FeedPageSize,
			PageMax:  cfg.Limits.FeedPageMax,
		},
	})

	communityService := communitysvc.NewService(communitysvc.Dependencies{
		Posts:    postRepo,
		Comments: commentRepo,
		Views:    viewRepo,
		Notifier: notificationService,
		Logger:   log,
	})

	categoriesService := categoriessvc.NewService(categoryRepo)

	paymentService := paymentsvc.NewService(paymentsvc.Dependencies{
		Store:          paymentRepo,
		Logger:         log,
		Provider:       cfg.Payment.Provider,
		MerchantCode:   cfg.Payment.MerchantCode,
		PointsPerWon:   cfg.Payment.PointsPerWon,
		WebhookSecret:  cfg.Payment.WebhookSecret,
		AllowDevTopups: cfg.Payment.AllowDevTopups,
	})

	pointsService := pointssvc.NewService(pointRepo)
	userService := userssvc.NewService(userssvc.Dependencies{
		Users:  userRepo,
		Points: pointRepo,
	})
	analyticsService := analyticsvc.NewService(eventRepo, analyticsvc.Config{
		MaxBatchSize: cfg.Limits.EventBatchMax,
	})

	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Limits.BidMaxPerMinute, cfg.Limits.OTPMaxPerHour)

	RegisterRoutes(r, Dependencies{
		AnalyticsService:    analyticsService,
		AuctionService:      auctionService,
		AuthService:         authService,
		CategoriesService:   categoriesService,
		CommunityService:    communityService,
		FeedService:         feedService,
		MediaService:        mediaService,
		ModerationService:   moderationService,
		NotificationService: notificationService,
		PaymentService:      paymentService,
		PointsService:       pointsService,
		UserService:         userService,
		RateLimiter:         rateLimiter,
		Hub:                 hub,
		Logger:              log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
