package service

import (
	"context"
	"time"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/model"
)

// Хранилища объявлены интерфейсами по контрактам pgx-репозиториев:
// сервисы и планировщик тестируются на fake-хранилищах без базы.

type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	GetBySeriesID(ctx context.Context, seriesID int64) ([]*model.Booking, error)
	ConfirmedOverlapExists(ctx context.Context, resourceID int64, begin, end time.Time) (bool, error)
	SeriesOverlapExists(ctx context.Context, seriesID, resourceID int64, begin, end time.Time, status model.BookingStatus) (bool, error)
	MaxOccurrenceDate(ctx context.Context, seriesID int64) (*time.Time, error)
	UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) error
	CancelFutureBySeries(ctx context.Context, seriesID int64, from time.Time) (int64, error)
}

type SeriesStore interface {
	Create(ctx context.Context, series *model.RecurrenceSeries) error
	GetByID(ctx context.Context, id int64) (*model.RecurrenceSeries, error)
	GetAllActive(ctx context.Context) ([]*model.RecurrenceSeries, error)
	UpdateStatus(ctx context.Context, id int64, status model.SeriesStatus) error
	UpdateLastOccurrenceDate(ctx context.Context, id int64, date *time.Time) error
}

type ResourceStore interface {
	GetByID(ctx context.Context, id int64) (*model.Resource, error)
}

type CompensationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Compensation, error)
}
