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
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// materializeWorkers ограничивает параллелизм фазы материализации.
const materializeWorkers = 4

// ExtensionService продлевает активные серии до настроенного горизонта:
// перечисляет вхождения в инкрементальном окне, материализует их и
// сохраняет выживших после фильтра Guard. Прогон идемпотентен: повторный
// запуск с тем же временем ничего не добавляет.
type ExtensionService struct {
	series        SeriesStore
	bookings      BookingStore
	materializer  *Materializer
	guard         *Guard
	clock         clock.Clock
	location      *time.Location
	maxFutureDays int
	notifier      notify.Notifier
	logger        *zap.Logger
}

func NewExtensionService(
	series SeriesStore,
	bookings BookingStore,
	materializer *Materializer,
	guard *Guard,
	clk clock.Clock,
	location *time.Location,
	maxFutureDays int,
	notifier notify.Notifier,
	logger *zap.Logger,
) *ExtensionService {
	return &ExtensionService{
		series:        series,
		bookings:      bookings,
		materializer:  materializer,
		guard:         guard,
		clock:         clk,
		location:      location,
		maxFutureDays: maxFutureDays,
		notifier:      notifier,
		logger:        logger,
	}
}

// ExtendAll продлевает все активные серии в порядке создания и возвращает
// созданные бронирования. Отказ одной серии не прерывает прогон.
func (s *ExtensionService) ExtendAll(ctx context.Context) ([]*model.Booking, error) {
	active, err := s.series.GetAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all active booking series: %w", err)
	}

	var created []*model.Booking
	for _, series := range active {
		bookings, err := s.ExtendSeries(ctx, series)
		if err != nil {
			s.logger.Error("Failed to extend series",
				zap.Int64("series_id", series.ID),
				zap.Error(err))
			continue
		}
		created = append(created, bookings...)
	}

	s.logger.Info("Series extension run completed",
		zap.Int("series_count", len(active)),
		zap.Int("created_count", len(created)))

	return created, nil
}

// ExtendSeries продлевает одну серию до горизонта now + maxFutureDays.
// Начало окна выводится из сохранённых вхождений (max(date) по серии),
// а не из кэшированного счётчика: падение между записью бронирований
// и обновлением кэша не приводит ни к пропускам, ни к дубликатам.
func (s *ExtensionService) ExtendSeries(ctx context.Context, series *model.RecurrenceSeries) ([]*model.Booking, error) {
	if !series.IsActive() {
		return nil, nil
	}

	now := s.clock.Now().In(s.location)
	horizonEnd := now.AddDate(0, 0, s.maxFutureDays)

	rule, err := recurrence.Decode(series.Rule)
	if err != nil {
		return nil, fmt.Errorf("decode rule of series %d: %w", series.ID, err)
	}

	firstYear, firstMonth, firstDay := series.FirstOccurrenceDate.Date()
	dtstart := time.Date(firstYear, firstMonth, firstDay, series.StartHour, series.StartMinute, 0, 0, s.location)

	windowStart := time.Date(firstYear, firstMonth, firstDay, 0, 0, 0, 0, s.location)
	maxDate, err := s.bookings.MaxOccurrenceDate(ctx, series.ID)
	if err != nil {
		return nil, fmt.Errorf("derive series horizon: %w", err)
	}
	if maxDate != nil {
		year, month, day := maxDate.Date()
		windowStart = time.Date(year, month, day+1, 0, 0, 0, 0, s.location)
	}

	if windowStart.After(horizonEnd) {
		return nil, nil
	}

	occurrences, err := recurrence.Enumerate(rule, dtstart, windowStart, horizonEnd)
	if err != nil {
		return nil, fmt.Errorf("enumerate series %d: %w", series.ID, err)
	}
	if len(occurrences) == 0 {
		return nil, nil
	}

	candidates, err := s.materializeAll(ctx, series, occurrences)
	if err != nil {
		return nil, err
	}

	persisted := s.persistCandidates(ctx, series, candidates)

	if err := s.refreshLastOccurrence(ctx, series, rule, dtstart); err != nil {
		s.logger.Warn("Failed to refresh cached last occurrence date",
			zap.Int64("series_id", series.ID),
			zap.Error(err))
	}

	if len(persisted) > 0 {
		s.notifier.Notify(ctx, notify.EventSeriesExtended, map[string]any{
			"series_id":     series.ID,
			"public_id":     series.PublicID,
			"created_count": len(persisted),
		})
	}

	return persisted, nil
}

// materializeAll материализует вхождения параллельно, сохраняя порядок.
// Вхождения независимы: результат зависит только от снимка серии и
// уже сохранённого состояния, поэтому map выполняется пулом воркеров,
// а фиксация — отдельной последовательной фазой.
func (s *ExtensionService) materializeAll(ctx context.Context, series *model.RecurrenceSeries, occurrences []time.Time) ([]*model.Booking, error) {
	candidates := make([]*model.Booking, len(occurrences))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(materializeWorkers)

	for i, occurrence := range occurrences {
		group.Go(func() error {
			booking, err := s.materializer.Materialize(groupCtx, series, occurrence)
			if err != nil {
				var materr *MaterializationError
				if errors.As(err, &materr) {
					// Пропускаем только это вхождение, прогон продолжается.
					s.logger.Warn("Skipping occurrence",
						zap.Int64("series_id", series.ID),
						zap.Time("occurrence", occurrence),
						zap.Error(err))
					return nil
				}
				return err
			}
			candidates[i] = booking
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("materialize series %d: %w", series.ID, err)
	}

	return candidates, nil
}

// persistCandidates сохраняет кандидатов строго по возрастанию дат.
// Отказ на одном вхождении логируется и не прерывает серию.
func (s *ExtensionService) persistCandidates(ctx context.Context, series *model.RecurrenceSeries, candidates []*model.Booking) []*model.Booking {
	var persisted []*model.Booking

	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}

		ok, err := s.guard.ShouldPersist(ctx, candidate)
		if err != nil {
			s.logger.Warn("Failed to check candidate",
				zap.Int64("series_id", series.ID),
				zap.Time("date", candidate.Date),
				zap.Error(err))
			continue
		}
		if !ok {
			// Заглушка уже сохранена прошлым прогоном.
			continue
		}

		err = s.bookings.Create(ctx, candidate)
		switch {
		case err == nil:
			persisted = append(persisted, candidate)
		case errors.Is(err, repository.ErrDuplicateOccurrence):
			// Вхождение на эту дату уже материализовано: прошлый прогон
			// упал после записи, но до обновления кэша. Не ошибка.
			s.logger.Debug("Occurrence already materialized",
				zap.Int64("series_id", series.ID),
				zap.Time("date", candidate.Date))
		case errors.Is(err, repository.ErrOverlapConflict):
			// Слот заняли между проверкой доступности и записью.
			// Сохраняем заглушку вместо подтверждённого вхождения.
			candidate.Status = model.BookingStatusUnavailable
			if err := s.bookings.Create(ctx, candidate); err != nil {
				s.logger.Warn("Failed to persist placeholder",
					zap.Int64("series_id", series.ID),
					zap.Time("date", candidate.Date),
					zap.Error(err))
				continue
			}
			persisted = append(persisted, candidate)
		default:
			s.logger.Warn("Failed to persist occurrence",
				zap.Int64("series_id", series.ID),
				zap.Time("date", candidate.Date),
				zap.Error(err))
		}
	}

	return persisted
}

// refreshLastOccurrence заполняет кэшированную дату последнего вхождения,
// когда правило конечно, а кэш ещё пуст. Бесконечные правила оставляют
// кэш пустым навсегда.
func (s *ExtensionService) refreshLastOccurrence(ctx context.Context, series *model.RecurrenceSeries, rule recurrence.Rule, dtstart time.Time) error {
	if rule.IsNeverEnding() || series.LastOccurrenceDate != nil {
		return nil
	}

	last, err := recurrence.LastOccurrence(rule, dtstart)
	if err != nil || last == nil {
		return err
	}

	year, month, day := last.Date()
	lastDate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	series.LastOccurrenceDate = &lastDate

	return s.series.UpdateLastOccurrenceDate(ctx, series.ID, &lastDate)
}
