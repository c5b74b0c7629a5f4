package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/app"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/clock"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/config"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/notify"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/repository"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Административная команда: однократно продлевает все активные серии и
// печатает количество созданных бронирований. Пропуски отдельных
// вхождений не фатальны — они уже записаны в лог, код выхода 0.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	seriesRepo := repository.NewSeriesRepository(pool, logger)
	resourceRepo := repository.NewResourceRepository(pool)
	compensationRepo := repository.NewCompensationRepository(pool)

	clk := clock.System()
	materializer := service.NewMaterializer(bookingRepo, resourceRepo, compensationRepo, clk, cfg.BookingLocation)
	guard := service.NewGuard(bookingRepo)
	extension := service.NewExtensionService(
		seriesRepo, bookingRepo, materializer, guard,
		clk, cfg.BookingLocation, cfg.MaxFutureBookingDays, notify.Nop{}, logger)

	created, err := extension.ExtendAll(ctx)
	if err != nil {
		logger.Fatal("Extension run failed", zap.Error(err))
	}

	fmt.Printf("created %d bookings\n", len(created))
}
