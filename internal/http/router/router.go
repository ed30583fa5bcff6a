package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/antonkudrin/profi-backend/internal/config"
	"github.com/antonkudrin/profi-backend/internal/http/handlers"
	"github.com/antonkudrin/profi-backend/internal/http/middleware"
	"github.com/antonkudrin/profi-backend/internal/service"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	quoteHandler *handlers.QuoteHandler,
	paymentHandler *handlers.PaymentHandler,
	appointmentHandler *handlers.AppointmentHandler,
	conversationHandler *handlers.ConversationHandler,
	notificationHandler *handlers.NotificationHandler,
	mediaHandler *handlers.MediaHandler,
	aiHandler *handlers.AIHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Публичные маршруты
	api.GET("/ws", wsHandler.Handle)
	api.GET("/professionals/:id/availability", middleware.UUIDValidator("id"), appointmentHandler.Availability)
	api.GET("/professionals/:id/check-slot", middleware.UUIDValidator("id"), appointmentHandler.CheckSlot)
	api.GET("/media/:id", middleware.UUIDValidator("id"), mediaHandler.Get)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", profileHandler.Get)
		protected.PUT("/profile", profileHandler.Update)

		protected.POST("/quotes", quoteHandler.Create)
		protected.GET("/quotes", quoteHandler.List)
		protected.GET("/quotes/:id", middleware.UUIDValidator("id"), quoteHandler.Get)
		protected.POST("/quotes/:id/respond", middleware.UUIDValidator("id"), quoteHandler.Respond)
		protected.POST("/quotes/:id/cancel", middleware.UUIDValidator("id"), quoteHandler.Cancel)
		protected.POST("/quotes/:id/complete", middleware.UUIDValidator("id"), quoteHandler.Complete)

		protected.POST("/quotes/:id/checkout", middleware.UUIDValidator("id"), paymentHandler.Checkout)
		protected.POST("/quotes/:id/verify-payment", middleware.UUIDValidator("id"), paymentHandler.Verify)
		protected.GET("/quotes/:id/transaction", middleware.UUIDValidator("id"), paymentHandler.GetTransaction)
		protected.GET("/wallet/transactions", paymentHandler.ListTransactions)

		protected.POST("/appointments", appointmentHandler.Create)
		protected.GET("/appointments", appointmentHandler.List)
		protected.GET("/appointments/:id", middleware.UUIDValidator("id"), appointmentHandler.Get)
		protected.POST("/appointments/:id/cancel", middleware.UUIDValidator("id"), appointmentHandler.Cancel)

		protected.POST("/conversations", conversationHandler.Start)
		protected.GET("/conversations", conversationHandler.List)
		protected.GET("/conversations/:id/messages", middleware.UUIDValidator("id"), conversationHandler.ListMessages)
		protected.POST("/conversations/:id/messages", middleware.UUIDValidator("id"), conversationHandler.SendMessage)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.CountUnread)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)

		protected.POST("/media", mediaHandler.Upload)
		protected.DELETE("/media/:id", middleware.UUIDValidator("id"), mediaHandler.Delete)

		if aiHandler != nil {
			protected.POST("/ai/service-description", aiHandler.GenerateDescription)
		}
	}

	return r
}
