package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/Surya12v/project-s/emi-backend/docs"
	"github.com/Surya12v/project-s/emi-backend/internal/config"
	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/Surya12v/project-s/emi-backend/internal/gateway"
	"github.com/Surya12v/project-s/emi-backend/internal/handler"
	"github.com/Surya12v/project-s/emi-backend/internal/middleware"
	"github.com/Surya12v/project-s/emi-backend/internal/repository/cache"
	"github.com/Surya12v/project-s/emi-backend/internal/repository/postgres"
	"github.com/Surya12v/project-s/emi-backend/internal/repository/storage"
	"github.com/Surya12v/project-s/emi-backend/internal/service"
	"github.com/Surya12v/project-s/emi-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Rate limits for the payment and webhook endpoints
const (
	paymentRequestsPerMinute = 20
	paymentBurst             = 5
	webhookRequestsPerMinute = 300
	webhookBurst             = 50
)

// @title EMI Backend API
// @version 1.0
// @description EMI order lifecycle, installment payments and gateway reconciliation.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the Auth0 access token.
// @securityDefinitions.apikey AdminKey
// @in header
// @name X-Admin-Key
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Apply schema migrations before serving
	migrator, err := postgres.NewMigrator(cfg.DatabaseURL, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrator")
	}
	if err := migrator.Up(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	if err := migrator.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close migrator")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	emiOrderRepo := postgres.NewEmiOrderRepository(pool)
	emiPaymentRepo := postgres.NewEmiPaymentRepository(pool)
	emiPlanRepo := postgres.NewEmiPlanRepository(pool)

	// Payment gateway
	gatewayClient, err := gateway.NewClient(gateway.Config{
		BaseURL:       cfg.Gateway.BaseURL,
		KeyID:         cfg.Gateway.KeyID,
		KeySecret:     cfg.Gateway.KeySecret,
		WebhookSecret: cfg.Gateway.WebhookSecret,
		Timeout:       cfg.Gateway.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gateway client")
	}

	penalty, err := domain.NewPenaltyPolicy(cfg.Emi.PenaltyMode, cfg.Emi.PenaltyValue)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build penalty policy")
	}

	// Real-time notifications
	hub := websocket.NewHubWithHistory(cfg.WSHistorySize, cfg.WSHistoryTTL)
	notificationService := service.NewNotificationService(hub)

	// Initialize services
	emiService := service.NewEmiService(emiOrderRepo, emiPaymentRepo, emiPlanRepo, cfg.Emi.GracePeriodDays)
	emiService.SetNotifier(notificationService)
	emiService.SetEventPublisher(hub)

	reconciliationService := service.NewReconciliationService(emiOrderRepo, emiPaymentRepo, gatewayClient, notificationService, log.Logger)
	reconciliationService.SetVerifyTimeout(cfg.Gateway.Timeout)
	reconciliationService.SetEventPublisher(hub)

	emiPlanService := service.NewEmiPlanService(emiPlanRepo)

	emiBatchService := service.NewEmiBatchService(emiOrderRepo, reconciliationService, gatewayClient, notificationService, penalty, log.Logger)

	// Optional distributed batch lock
	if cfg.RedisURL != "" {
		batchLock, err := cache.NewRedisBatchLock(cfg.RedisURL, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer batchLock.Close()
		emiBatchService.SetLock(batchLock)
		log.Info().Msg("Redis batch lock enabled")
	}

	// Optional batch report archive
	if cfg.S3.Enabled() {
		reportStore, err := storage.NewS3ReportRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 report storage")
		}
		emiBatchService.SetReportStore(reportStore)
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Batch report archiving enabled")
	}

	// Daily batch worker
	var batchWorker *service.BatchWorker
	if cfg.Emi.BatchEnabled {
		batchWorker = service.NewBatchWorker(emiBatchService, log.Logger, service.BatchWorkerConfig{
			Interval: cfg.Emi.BatchInterval,
		})
	}

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create websocket token validator")
	}

	paymentLimiter := middleware.NewRateLimiterWithConfig(paymentRequestsPerMinute, paymentBurst)
	defer paymentLimiter.Stop()
	webhookLimiter := middleware.NewRateLimiterWithConfig(webhookRequestsPerMinute, webhookBurst)
	defer webhookLimiter.Stop()

	// Initialize handlers
	emiHandler := handler.NewEmiHandler(emiService, reconciliationService)
	emiAdminHandler := handler.NewEmiAdminHandler(emiService, reconciliationService, emiPlanService, emiBatchService)
	emiPlanHandler := handler.NewEmiPlanHandler(emiPlanService)
	webhookHandler := handler.NewWebhookHandler(reconciliationService)
	wsHandler := handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Register routes
	handler.RegisterRoutes(e, authMiddleware, cfg.AdminAPIKey, paymentLimiter, webhookLimiter,
		emiHandler, emiAdminHandler, emiPlanHandler, webhookHandler, wsHandler)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	if batchWorker != nil {
		batchWorker.Start(workerCtx)
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Cancelling first lets an in-flight batch stop after its current order
	cancelWorker()
	if batchWorker != nil {
		batchWorker.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
