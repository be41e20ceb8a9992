package routes

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/marketplace/internal/audit"
	"github.com/BruksfildServices01/marketplace/internal/config"
	"github.com/BruksfildServices01/marketplace/internal/handlers"
	"github.com/BruksfildServices01/marketplace/internal/infra/cache"
	"github.com/BruksfildServices01/marketplace/internal/infra/realtime"
	infraRepo "github.com/BruksfildServices01/marketplace/internal/infra/repository"
	"github.com/BruksfildServices01/marketplace/internal/infra/search"
	"github.com/BruksfildServices01/marketplace/internal/infra/storage"
	"github.com/BruksfildServices01/marketplace/internal/metrics"
	"github.com/BruksfildServices01/marketplace/internal/middleware"
	ucBooking "github.com/BruksfildServices01/marketplace/internal/usecase/booking"
	ucPricing "github.com/BruksfildServices01/marketplace/internal/usecase/pricing"
)

// Deps are the process-wide clients built once in main. Redis, Elastic
// and S3 may be nil; each feature then degrades on its own.
type Deps struct {
	DB      *gorm.DB
	Config  *config.Config
	Log     *zap.Logger
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	S3      *s3.Client
}

// App exposes what main has to run or stop alongside the HTTP server.
type App struct {
	Broker *realtime.Broker
	Hub    *realtime.Hub
	Audit  *audit.Dispatcher
}

func RegisterRoutes(r *gin.Engine, d Deps) *App {
	db, cfg, log := d.DB, d.Config, d.Log

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	bookingRepo := infraRepo.NewBookingGormRepository(db)
	discountRepo := infraRepo.NewDiscountGormRepository(db)

	auditDispatcher := audit.NewDispatcher(audit.New(db), log)

	redisCache := cache.New(d.Redis, log)
	hub := realtime.NewHub(realtime.NewDeduplicator(realtime.DedupWindow), log)
	broker := realtime.NewBroker(d.Redis, hub, log)
	index := search.NewElasticIndex(d.Elastic, log)

	var photos storage.PhotoStore
	if d.S3 != nil {
		photos = storage.NewS3Store(d.S3, cfg.S3Bucket, cfg.S3PublicURL)
	}

	// ======================================================
	// USE CASES
	// ======================================================
	resolver := ucPricing.NewResolver(discountRepo, log)
	fanout := ucBooking.NewFanout(broker, redisCache, auditDispatcher, log)

	createBookingUC := ucBooking.NewCreateBooking(bookingRepo, resolver, fanout)
	approveBookingUC := ucBooking.NewApproveBooking(bookingRepo, fanout)
	rejectBookingUC := ucBooking.NewRejectBooking(bookingRepo, fanout)
	cancelBookingUC := ucBooking.NewCancelBooking(bookingRepo, fanout)
	completeBookingUC := ucBooking.NewCompleteBooking(bookingRepo, fanout)
	acceptSuggestionUC := ucBooking.NewAcceptSuggestion(bookingRepo, resolver, fanout)
	rejectSuggestionUC := ucBooking.NewRejectSuggestion(bookingRepo, fanout)
	listBookingsUC := ucBooking.NewListBookings(bookingRepo)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	meHandler := handlers.NewMeHandler(db)
	serviceHandler := handlers.NewServiceHandler(db, redisCache, index, photos, log)
	discountHandler := handlers.NewDiscountHandler(db, resolver)
	availabilityHandler := handlers.NewAvailabilityHandler(db, bookingRepo, redisCache)
	notificationHandler := handlers.NewNotificationHandler(db)
	messageHandler := handlers.NewMessageHandler(db, broker, log)
	reviewHandler := handlers.NewReviewHandler(db)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)
	wsHandler := handlers.NewWSHandler(hub, cfg, log)

	bookingHandler := handlers.NewBookingHandler(
		createBookingUC,
		approveBookingUC,
		rejectBookingUC,
		cancelBookingUC,
		completeBookingUC,
		acceptSuggestionUC,
		rejectSuggestionUC,
		listBookingsUC,
	)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/ws", wsHandler.Connect)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		api.GET("/service-types", serviceHandler.ListServiceTypes)
		api.GET("/services", serviceHandler.List)
		api.GET("/services/:id", serviceHandler.Get)
		api.GET("/discounts", discountHandler.List)
		api.GET("/discounts/quote", discountHandler.Quote)
		api.GET("/availability", availabilityHandler.Get)
		api.GET("/reviews", reviewHandler.List)

		// ------------------------------
		// AUTHENTICATED
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)
			secured.PATCH("/me", meHandler.UpdateMe)
			secured.GET("/me/audit-logs", auditLogsHandler.List)

			// ------------------------------
			// BOOKINGS
			// ------------------------------
			secured.POST("/bookings", bookingHandler.Create)
			secured.GET("/bookings", bookingHandler.List)
			secured.PUT("/bookings/:id/approve", bookingHandler.Approve)
			secured.PUT("/bookings/:id/reject", bookingHandler.Reject)
			secured.PUT("/bookings/:id/cancel", bookingHandler.Cancel)
			secured.PUT("/bookings/:id/complete", bookingHandler.Complete)
			secured.PUT("/bookings/:id/accept-suggestion", bookingHandler.AcceptSuggestion)
			secured.PUT("/bookings/:id/reject-suggestion", bookingHandler.RejectSuggestion)

			// ------------------------------
			// NOTIFICATIONS / CHAT
			// ------------------------------
			secured.GET("/notifications", notificationHandler.List)
			secured.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			secured.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
			secured.PUT("/notifications/:id/read", notificationHandler.MarkRead)

			secured.GET("/messages", messageHandler.List)
			secured.GET("/messages/conversations", messageHandler.Conversations)
			secured.POST("/messages", messageHandler.Send)
			secured.PUT("/messages/read/conversation", messageHandler.MarkConversationRead)
			secured.PUT("/messages/:id/read", messageHandler.MarkRead)

			// ------------------------------
			// REVIEWS (CLIENT)
			// ------------------------------
			secured.POST("/reviews", reviewHandler.Create)
			secured.PUT("/reviews/:id", reviewHandler.Update)
			secured.DELETE("/reviews/:id", reviewHandler.Delete)

			// ------------------------------
			// CATALOG (PROVIDER)
			// ------------------------------
			provider := secured.Group("/")
			provider.Use(middleware.RequireProvider())
			{
				provider.GET("/me/clients", meHandler.Clients)

				provider.POST("/services", serviceHandler.Create)
				provider.PUT("/services/:id", serviceHandler.Update)
				provider.DELETE("/services/:id", serviceHandler.Delete)
				provider.POST("/services/:id/photos", serviceHandler.UploadPhoto)
				provider.DELETE("/services/:id/photos", serviceHandler.DeletePhoto)

				provider.POST("/discounts", discountHandler.Create)
				provider.PUT("/discounts/:id", discountHandler.Update)
				provider.DELETE("/discounts/:id", discountHandler.Delete)

				provider.POST("/availability", availabilityHandler.Create)
				provider.DELETE("/availability/:id", availabilityHandler.Delete)
			}
		}
	}

	return &App{Broker: broker, Hub: hub, Audit: auditDispatcher}
}
