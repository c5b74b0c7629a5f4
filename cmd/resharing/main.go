package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/app"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/clock"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/config"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/notify"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/repository"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting re-sharing booking service",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.BookingLocation.String()),
		zap.Int("max_future_booking_days", cfg.MaxFutureBookingDays))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	var notifier notify.Notifier = notify.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
	}

	bookingRepo := repository.NewBookingRepository(pool)
	seriesRepo := repository.NewSeriesRepository(pool, logger)
	resourceRepo := repository.NewResourceRepository(pool)
	compensationRepo := repository.NewCompensationRepository(pool)

	clk := clock.System()
	materializer := service.NewMaterializer(bookingRepo, resourceRepo, compensationRepo, clk, cfg.BookingLocation)
	guard := service.NewGuard(bookingRepo)
	extension := service.NewExtensionService(
		seriesRepo, bookingRepo, materializer, guard,
		clk, cfg.BookingLocation, cfg.MaxFutureBookingDays, notifier, logger)

	scheduler := app.NewScheduler(extension, cfg.ExtendSchedule, logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Signal received, shutting down", zap.String("signal", sig.String()))

	scheduler.Stop()
}
