package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/antonkudrin/profi-backend/internal/ai"
	"github.com/antonkudrin/profi-backend/internal/billing"
	"github.com/antonkudrin/profi-backend/internal/config"
	"github.com/antonkudrin/profi-backend/internal/db"
	"github.com/antonkudrin/profi-backend/internal/goroutine"
	httpHandlers "github.com/antonkudrin/profi-backend/internal/http/handlers"
	httpRouter "github.com/antonkudrin/profi-backend/internal/http/router"
	"github.com/antonkudrin/profi-backend/internal/logger"
	"github.com/antonkudrin/profi-backend/internal/repository"
	"github.com/antonkudrin/profi-backend/internal/service"
	"github.com/antonkudrin/profi-backend/internal/storage"
	"github.com/antonkudrin/profi-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Env == "production" {
		logger.Init("info", true)
	} else {
		logger.Init("debug", false)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	mediaStorage, err := storage.NewMediaStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	quoteRepo := repository.NewQuoteRepository(dbConn)
	walletRepo := repository.NewWalletRepository(dbConn)
	appointmentRepo := repository.NewAppointmentRepository(dbConn)
	conversationRepo := repository.NewConversationRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	mediaRepo := repository.NewMediaRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	notificationService := service.NewNotificationService(notificationRepo)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	goroutine.SafeGo(hub.Run)

	// Внешние клиенты.
	billingClient := billing.NewClient(cfg.BillingBaseURL, cfg.BillingAPIKey)

	var aiClient *ai.Client
	if cfg.AIBaseURL != "" {
		aiClient = ai.NewClient(cfg.AIBaseURL, cfg.AIModel)
	}

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	var moderator service.Moderator
	if aiClient != nil {
		moderator = aiClient
	}
	quoteService := service.NewQuoteService(quoteRepo, conversationRepo, moderator, hub)
	settlementService := service.NewSettlementService(
		quoteRepo, walletRepo, userRepo, billingClient, conversationRepo, hub,
		cfg.PlatformFeeRate, cfg.BillingReturnURL,
	)
	appointmentService := service.NewAppointmentService(appointmentRepo, conversationRepo, hub)
	conversationService := service.NewConversationService(conversationRepo, hub)
	mediaService := service.NewMediaService(mediaRepo, mediaStorage)

	// Фоновые проверки: просрочка смет и напоминания о встречах.
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		startQuoteSweeper(ctx, quoteService, cfg.QuoteSweepInterval)
	})
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		startReminderSweeper(ctx, appointmentService, cfg.ReminderSweepInterval)
	})

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	profileHandler := httpHandlers.NewProfileHandler(authService)
	quoteHandler := httpHandlers.NewQuoteHandler(quoteService)
	paymentHandler := httpHandlers.NewPaymentHandler(settlementService)
	appointmentHandler := httpHandlers.NewAppointmentHandler(appointmentService)
	conversationHandler := httpHandlers.NewConversationHandler(conversationService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	mediaHandler := httpHandlers.NewMediaHandler(mediaService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	var aiHandler *httpHandlers.AIHandler
	if aiClient != nil {
		aiHandler = httpHandlers.NewAIHandler(aiClient)
	}

	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		profileHandler,
		quoteHandler,
		paymentHandler,
		appointmentHandler,
		conversationHandler,
		notificationHandler,
		mediaHandler,
		aiHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
