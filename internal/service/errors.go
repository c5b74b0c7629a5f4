package service

import (
	"errors"
	"fmt"
	"time"
)

// ErrResourceAlreadyBooked — пользовательская ошибка: ресурс уже занят
// подтверждённым бронированием на запрошенный интервал.
var ErrResourceAlreadyBooked = errors.New("resource already booked for that timespan")

// ErrInvalidTimeRange — время окончания не позже времени начала.
var ErrInvalidTimeRange = errors.New("end time must be after start time")

// MaterializationError — вхождение серии не удалось материализовать,
// например удалена компенсация или ресурс. Планировщик логирует такую
// ошибку и пропускает одно вхождение, не прерывая прогон.
type MaterializationError struct {
	SeriesID int64
	Date     time.Time
	Reason   string
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("materialize occurrence %s of series %d: %s",
		e.Date.Format("2006-01-02"), e.SeriesID, e.Reason)
}
