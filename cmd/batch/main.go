// Command batch runs the EMI daily batch once and exits. It is meant for an
// external scheduler when the in-process worker is disabled.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/config"
	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/Surya12v/project-s/emi-backend/internal/gateway"
	"github.com/Surya12v/project-s/emi-backend/internal/repository/cache"
	"github.com/Surya12v/project-s/emi-backend/internal/repository/postgres"
	"github.com/Surya12v/project-s/emi-backend/internal/repository/storage"
	"github.com/Surya12v/project-s/emi-backend/internal/service"
	"github.com/Surya12v/project-s/emi-backend/internal/util"
	"github.com/Surya12v/project-s/emi-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	date := flag.String("date", "", "run date in YYYY-MM-DD (default: today, UTC)")
	timeout := flag.Duration("timeout", 30*time.Minute, "abort the run after this long")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	runDate := time.Now().UTC()
	if *date != "" {
		parsed, err := util.ParseDate(*date)
		if err != nil {
			log.Fatal().Err(err).Str("date", *date).Msg("Invalid -date")
		}
		runDate = parsed
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}

	emiOrderRepo := postgres.NewEmiOrderRepository(pool)
	emiPaymentRepo := postgres.NewEmiPaymentRepository(pool)

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

	// No websocket clients live in this process
	notifier := service.NewNotificationService(&websocket.NoOpPublisher{})

	reconciliationService := service.NewReconciliationService(emiOrderRepo, emiPaymentRepo, gatewayClient, notifier, log.Logger)
	reconciliationService.SetVerifyTimeout(cfg.Gateway.Timeout)
	emiBatchService := service.NewEmiBatchService(emiOrderRepo, reconciliationService, gatewayClient, notifier, penalty, log.Logger)

	if cfg.RedisURL != "" {
		batchLock, err := cache.NewRedisBatchLock(cfg.RedisURL, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer batchLock.Close()
		emiBatchService.SetLock(batchLock)
	}

	if cfg.S3.Enabled() {
		reportStore, err := storage.NewS3ReportRepository(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 report storage")
		}
		emiBatchService.SetReportStore(reportStore)
	}

	summary, err := emiBatchService.RunDailyBatch(ctx, runDate)
	if err != nil {
		log.Error().Err(err).Str("run_date", runDate.Format(util.DateLayout)).Msg("EMI batch run failed")
		os.Exit(1)
	}

	log.Info().
		Str("run_date", summary.RunDate).
		Int("orders_scanned", summary.OrdersScanned).
		Int("auto_paid", summary.AutoPaid).
		Int("newly_late", summary.NewlyLate).
		Int("failed", summary.Failed).
		Str("report_key", summary.ReportKey).
		Msg("EMI batch run finished")
}
