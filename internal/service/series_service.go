package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/clock"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/model"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/notify"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/recurrence"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SeriesService создаёт серии регулярных бронирований и управляет их
// статусом. Изменение статуса каскадно распространяется на ещё не
// начавшиеся вхождения серии.
type SeriesService struct {
	series    SeriesStore
	bookings  BookingStore
	extension *ExtensionService
	clock     clock.Clock
	location  *time.Location
	notifier  notify.Notifier
	logger    *zap.Logger
}

func NewSeriesService(
	series SeriesStore,
	bookings BookingStore,
	extension *ExtensionService,
	clk clock.Clock,
	location *time.Location,
	notifier notify.Notifier,
	logger *zap.Logger,
) *SeriesService {
	return &SeriesService{
		series:    series,
		bookings:  bookings,
		extension: extension,
		clock:     clk,
		location:  location,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateSeriesInput — заявка пользователя на регулярное бронирование.
type CreateSeriesInput struct {
	Rule           recurrence.Rule
	StartDate      time.Time // дата первого дня действия правила
	StartHour      int
	StartMinute    int
	EndHour        int
	EndMinute      int
	ResourceID     int64
	OrganizationID int64
	UserID         int64
	CompensationID *int64
	AmountCents    *int64
	Activity       string
	InvoiceAddress string
	AttendeeCount  int
}

// CreateSeries нормализует правило, создаёт серию и материализует
// начальное окно вхождений. Ошибки правила возвращаются как
// *recurrence.MalformedRecurrenceError для показа на форме.
func (s *SeriesService) CreateSeries(ctx context.Context, input CreateSeriesInput) (*model.RecurrenceSeries, error) {
	if err := input.Rule.Validate(); err != nil {
		return nil, err
	}

	startMinutes := input.StartHour*60 + input.StartMinute
	endMinutes := input.EndHour*60 + input.EndMinute
	if endMinutes <= startMinutes {
		return nil, ErrInvalidTimeRange
	}

	year, month, day := input.StartDate.Date()
	dtstart := time.Date(year, month, day, input.StartHour, input.StartMinute, 0, 0, s.location)

	if input.Rule.Until != nil {
		// UNTIL вместе со временем окончания не может быть раньше начала серии.
		uy, um, ud := input.Rule.Until.Date()
		untilEnd := time.Date(uy, um, ud, input.EndHour, input.EndMinute, 0, 0, s.location)
		if untilEnd.Before(dtstart) {
			return nil, &recurrence.MalformedRecurrenceError{
				Field:  "Until",
				Reason: "resolves to an instant before the series start",
			}
		}
	}

	first, err := recurrence.FirstOccurrence(input.Rule, dtstart)
	if err != nil {
		return nil, fmt.Errorf("compute first occurrence: %w", err)
	}
	if first.IsZero() {
		return nil, &recurrence.MalformedRecurrenceError{
			Field:  "Until",
			Reason: "rule yields no occurrences",
		}
	}

	series := &model.RecurrenceSeries{
		PublicID:            uuid.New(),
		Rule:                input.Rule.Encode(),
		FirstOccurrenceDate: dateOnly(first),
		ResourceID:          input.ResourceID,
		OrganizationID:      input.OrganizationID,
		UserID:              input.UserID,
		CompensationID:      input.CompensationID,
		AmountCents:         input.AmountCents,
		StartHour:           input.StartHour,
		StartMinute:         input.StartMinute,
		EndHour:             input.EndHour,
		EndMinute:           input.EndMinute,
		Activity:            input.Activity,
		InvoiceAddress:      input.InvoiceAddress,
		AttendeeCount:       input.AttendeeCount,
		Status:              model.SeriesStatusPending,
	}

	last, err := recurrence.LastOccurrence(input.Rule, dtstart)
	if err != nil {
		return nil, fmt.Errorf("compute last occurrence: %w", err)
	}
	if last != nil {
		lastDate := dateOnly(*last)
		series.LastOccurrenceDate = &lastDate
	}

	if err := s.series.Create(ctx, series); err != nil {
		return nil, fmt.Errorf("create series: %w", err)
	}

	s.logger.Info("Booking series created",
		zap.Int64("series_id", series.ID),
		zap.String("public_id", series.PublicID.String()),
		zap.String("rule", series.Rule),
		zap.Int64("resource_id", series.ResourceID))

	// Начальная материализация окна. Серия уже создана, поэтому отказ
	// здесь не откатывает её: следующий прогон планировщика доделает.
	created, err := s.extension.ExtendSeries(ctx, series)
	if err != nil {
		s.logger.Error("Failed to materialize initial window",
			zap.Int64("series_id", series.ID),
			zap.Error(err))
	} else {
		s.logger.Info("Initial occurrences materialized",
			zap.Int64("series_id", series.ID),
			zap.Int("count", len(created)))
	}

	s.notifier.Notify(ctx, notify.EventSeriesCreated, seriesPayload(series))

	return series, nil
}

// ConfirmSeries подтверждает серию и каскадно подтверждает её будущие
// pending-вхождения. Вхождение, чей слот уже заняли, остаётся заглушкой.
func (s *SeriesService) ConfirmSeries(ctx context.Context, id int64) error {
	series, err := s.series.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get series: %w", err)
	}
	if series == nil {
		return fmt.Errorf("series not found")
	}

	if err := s.series.UpdateStatus(ctx, id, model.SeriesStatusConfirmed); err != nil {
		return fmt.Errorf("confirm series: %w", err)
	}

	bookings, err := s.bookings.GetBySeriesID(ctx, id)
	if err != nil {
		return fmt.Errorf("get series bookings: %w", err)
	}

	now := s.clock.Now()
	for _, booking := range bookings {
		if booking.Status != model.BookingStatusPending || booking.Begin.Before(now) {
			continue
		}
		err := s.bookings.UpdateStatus(ctx, booking.ID, model.BookingStatusConfirmed)
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrOverlapConflict):
			// База отвергла пересечение: слот успели занять, пока серия
			// ждала подтверждения. Вхождение становится заглушкой.
			s.logger.Warn("Occurrence slot taken while series was pending",
				zap.Int64("series_id", id),
				zap.Int64("booking_id", booking.ID),
				zap.Error(err))
			if err := s.bookings.UpdateStatus(ctx, booking.ID, model.BookingStatusUnavailable); err != nil {
				s.logger.Warn("Failed to mark occurrence unavailable",
					zap.Int64("booking_id", booking.ID),
					zap.Error(err))
			}
		default:
			// Временный сбой хранилища не повод хоронить вхождение:
			// оно остаётся pending до следующей попытки подтверждения.
			s.logger.Warn("Failed to confirm occurrence",
				zap.Int64("series_id", id),
				zap.Int64("booking_id", booking.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("Booking series confirmed", zap.Int64("series_id", id))
	s.notifier.Notify(ctx, notify.EventSeriesConfirmed, seriesPayload(series))

	return nil
}

// CancelSeries отменяет серию и все её ещё не начавшиеся вхождения.
// Отмена видна планировщику немедленно: статус читается на каждом прогоне.
func (s *SeriesService) CancelSeries(ctx context.Context, id int64) error {
	series, err := s.series.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get series: %w", err)
	}
	if series == nil {
		return fmt.Errorf("series not found")
	}

	if err := s.series.UpdateStatus(ctx, id, model.SeriesStatusCancelled); err != nil {
		return fmt.Errorf("cancel series: %w", err)
	}

	cancelled, err := s.bookings.CancelFutureBySeries(ctx, id, s.clock.Now())
	if err != nil {
		return fmt.Errorf("cancel future occurrences: %w", err)
	}

	s.logger.Info("Booking series cancelled",
		zap.Int64("series_id", id),
		zap.Int64("cancelled_occurrences", cancelled))
	s.notifier.Notify(ctx, notify.EventSeriesCancelled, seriesPayload(series))

	return nil
}

func seriesPayload(series *model.RecurrenceSeries) map[string]any {
	return map[string]any{
		"series_id": series.ID,
		"public_id": series.PublicID,
		"rule":      series.Rule,
	}
}

// dateOnly обрезает момент до даты (полночь UTC, как в колонке date).
func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
