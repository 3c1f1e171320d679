package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

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
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/handlers"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/ws"
)

type Dependencies struct {
	AnalyticsService    *analyticsvc.Service
	AuctionService      *auctionsvc.Service
	AuthService         *authsvc.Service
	CategoriesService   *categoriessvc.Service
	CommunityService    *communitysvc.Service
	FeedService         *feedsvc.Service
	MediaService        *mediasvc.Service
	ModerationService   *modsvc.Service
	NotificationService *notifysvc.Service
	PaymentService      *paymentsvc.Service
	PointsService       *pointssvc.Service
	UserService         *userssvc.Service
	RateLimiter         *ratesvc.Limiter
	Hub                 *ws.Hub
	Logger              *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.RateLimiter)
	photosHandler := handlers.NewPhotosHandler(deps.AuctionService, deps.MediaService, deps.ModerationService, deps.RateLimiter)
	feedHandler := handlers.NewFeedHandler(deps.FeedService)
	meHandler := handlers.NewMeHandler(deps.UserService, deps.PointsService)
	paymentsHandler := handlers.NewPaymentsHandler(deps.PaymentService)
	communityHandler := handlers.NewCommunityHandler(deps.CommunityService)
	categoriesHandler := handlers.NewCategoriesHandler(deps.CategoriesService)
	notificationsHandler := handlers.NewNotificationsHandler(deps.NotificationService)
	wsHandler := handlers.NewWSHandler(deps.AuthService, deps.Hub, deps.Logger)
	moderationHandler := handlers.NewModerationHandler(deps.ModerationService)
	adminHandler := handlers.NewAdminHandler(deps.UserService)
	eventsHandler := handlers.NewEventsHandler(deps.AnalyticsService)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	adminMW := RequireRole("ADMIN")

	r.Get("/healthz", healthHandler.Get)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.SignupEmail)
		r.Post("/login", authHandler.LoginEmail)
		r.Post("/phone/request", authHandler.RequestPhoneCode)
		r.Post("/phone/verify", authHandler.VerifyPhoneCode)
		r.Post("/oauth/{provider}", authHandler.LoginOAuth)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
		r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
	})

	r.Get("/categories", categoriesHandler.List)

	r.Route("/photos", func(r chi.Router) {
		r.Get("/", feedHandler.List)
		r.Get("/{id}", feedHandler.Get)
		r.Get("/{id}/bids", photosHandler.ListBids)

		r.With(authMW).Post("/upload", photosHandler.Upload)
		r.With(authMW).Post("/", photosHandler.Create)
		r.With(authMW).Post("/{id}/bids", photosHandler.PlaceBid)
		r.With(authMW).Post("/{id}/buy_now", photosHandler.BuyNow)
		r.With(authMW).Post("/{id}/relist", photosHandler.Relist)
		r.With(authMW).Post("/{id}/like", feedHandler.ToggleLike)
	})

	r.Route("/me", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", meHandler.Profile)
		r.Patch("/nickname", meHandler.UpdateNickname)
		r.Get("/points", meHandler.PointsBalance)
		r.Get("/points/history", meHandler.PointsHistory)
		r.Get("/bids", photosHandler.MyBids)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/webhook", paymentsHandler.Webhook)
		r.With(authMW).Post("/", paymentsHandler.Create)
		r.With(authMW).Get("/", paymentsHandler.History)
		r.With(authMW).Get("/{id}", paymentsHandler.Get)
		r.With(authMW, adminMW).Post("/dev/topup", paymentsHandler.DevTopup)
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", communityHandler.ListPosts)
		r.Get("/{id}", communityHandler.GetPost)
		r.Get("/{id}/comments", communityHandler.ListComments)

		r.With(authMW).Post("/", communityHandler.CreatePost)
		r.With(authMW).Put("/{id}", communityHandler.UpdatePost)
		r.With(authMW).Delete("/{id}", communityHandler.DeletePost)
		r.With(authMW).Post("/{id}/like", communityHandler.ToggleLike)
		r.With(authMW).Post("/{id}/comments", communityHandler.AddComment)
	})
	r.With(authMW).Delete("/comments/{comment_id}", communityHandler.DeleteComment)

	r.Route("/notifications", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", notificationsHandler.List)
		r.Get("/unread_count", notificationsHandler.UnreadCount)
		r.Post("/{id}/read", notificationsHandler.MarkRead)
		r.Post("/read_all", notificationsHandler.MarkAllRead)
	})

	// The websocket carries its token in the query string, the handler
	// validates it itself.
	r.Get("/ws", wsHandler.Serve)

	r.Post("/events/batch", eventsHandler.Batch)

	r.Route("/admin", func(r chi.Router) {
		r.Use(authMW, adminMW)
		r.Get("/users", adminHandler.ListUsers)
		r.Get("/users/{id}", adminHandler.GetUser)
		r.Post("/users/{id}/ban", adminHandler.SetBanned)
		r.Post("/users/{id}/role", adminHandler.SetRole)

		r.Get("/moderation/queue", moderationHandler.Queue)
		r.Post("/moderation/{id}/approve", moderationHandler.Approve)
		r.Post("/moderation/{id}/reject", moderationHandler.Reject)

		r.Post("/categories", categoriesHandler.Create)
		r.Put("/categories/{id}", categoriesHandler.Update)
		r.Post("/categories/{id}/move_up", categoriesHandler.MoveUp)
		r.Post("/categories/{id}/move_down", categoriesHandler.MoveDown)
	})
}
