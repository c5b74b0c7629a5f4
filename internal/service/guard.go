package service

import (
	"context"
	"fmt"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/model"
)

// Guard защищает повторные прогоны продления от дублирования
// unavailable-заглушек. Когда слот серии занят чужим подтверждённым
// бронированием, материализатор на каждом прогоне заново построит
// идентичную заглушку для этой даты; без фильтра каждая такая заглушка
// вставлялась бы повторно.
//
// Правило намеренно узкое: pending- и confirmed-кандидаты никогда не
// фильтруются. Настоящие дубликаты реальных вхождений отсекает
// уникальное ограничение (series_id, date) на уровне базы, а пересечения
// подтверждённых бронирований — exclusion-ограничение.
type Guard struct {
	bookings BookingStore
}

func NewGuard(bookings BookingStore) *Guard {
	return &Guard{bookings: bookings}
}

// ShouldPersist решает, сохранять ли материализованного кандидата.
// false — только для unavailable-заглушки, у которой уже есть
// сохранённый двойник: тот же ресурс, та же серия, пересекающийся
// интервал.
func (g *Guard) ShouldPersist(ctx context.Context, candidate *model.Booking) (bool, error) {
	if candidate.Status != model.BookingStatusUnavailable || candidate.SeriesID == nil {
		return true, nil
	}

	// Сужение до status = unavailable безопасно: двойник любого другого
	// статуса на ту же дату отсечёт уникальный индекс (series_id, date).
	exists, err := g.bookings.SeriesOverlapExists(
		ctx,
		*candidate.SeriesID,
		candidate.ResourceID,
		candidate.Begin,
		candidate.End,
		model.BookingStatusUnavailable,
	)
	if err != nil {
		return false, fmt.Errorf("check placeholder duplicate: %w", err)
	}

	return !exists, nil
}
