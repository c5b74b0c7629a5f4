package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN       string
	Environment string

	// BookingLocation — зона, в которой трактуются стенные часы серий.
	BookingLocation *time.Location

	// MaxFutureBookingDays — горизонт материализации серий в днях.
	MaxFutureBookingDays int

	// ExtendSchedule — cron-выражение периодического продления серий.
	ExtendSchedule string

	// KafkaBrokers пуст — уведомления отключены.
	KafkaBrokers []string
	KafkaTopic   string

	MigrationsPath string
}

const (
	defaultMaxFutureBookingDays = 730
	defaultBookingTimezone      = "Europe/Berlin"
	defaultExtendSchedule       = "@daily"
	defaultKafkaTopic           = "booking-events"
	defaultMigrationsPath       = "migrations"
)

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		Environment:    os.Getenv("ENV"),
		ExtendSchedule: os.Getenv("EXTEND_SCHEDULE"),
		KafkaTopic:     os.Getenv("KAFKA_TOPIC"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.ExtendSchedule == "" {
		cfg.ExtendSchedule = defaultExtendSchedule
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = defaultKafkaTopic
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = defaultMigrationsPath
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}

	cfg.MaxFutureBookingDays = defaultMaxFutureBookingDays
	if raw := os.Getenv("MAX_FUTURE_BOOKING_DAYS"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("MAX_FUTURE_BOOKING_DAYS must be a positive integer, got %q", raw)
		}
		cfg.MaxFutureBookingDays = days
	}

	tz := os.Getenv("BOOKING_TIMEZONE")
	if tz == "" {
		tz = defaultBookingTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load booking timezone %q: %w", tz, err)
	}
	cfg.BookingLocation = loc

	return cfg, nil
}
