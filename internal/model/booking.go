package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending     BookingStatus = "pending"     // Ожидает подтверждения менеджера
	BookingStatusConfirmed   BookingStatus = "confirmed"   // Подтверждено
	BookingStatusCancelled   BookingStatus = "cancelled"   // Отменено
	BookingStatusUnavailable BookingStatus = "unavailable" // Слот уже занят другим бронированием (заглушка)
)

// Booking представляет одно бронирование ресурса: либо разовое,
// либо материализованное вхождение регулярной серии.
type Booking struct {
	ID             int64         `json:"id"`
	UUID           uuid.UUID     `json:"uuid"`
	Slug           string        `json:"slug"`
	ResourceID     int64         `json:"resource_id"`
	OrganizationID int64         `json:"organization_id"`
	UserID         int64         `json:"user_id"`
	CompensationID *int64        `json:"compensation_id"`
	SeriesID       *int64        `json:"series_id"` // nil для разовых бронирований
	Status         BookingStatus `json:"status"`

	// Интервал [Begin, End) — абсолютные моменты времени. Нижняя граница
	// включительно, верхняя нет: два подтверждённых бронирования одного
	// ресурса не должны пересекаться.
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`

	// Денормализованные дата и время по стенным часам. После перехода на
	// зимнее/летнее время абсолютный момент и локальное время расходятся,
	// а намерение пользователя задано именно стенными часами.
	Date        time.Time `json:"date"`
	StartHour   int       `json:"start_hour"`
	StartMinute int       `json:"start_minute"`
	EndHour     int       `json:"end_hour"`
	EndMinute   int       `json:"end_minute"`

	TotalCents     *int64 `json:"total_cents"` // nil если компенсация бесплатная
	Activity       string `json:"activity"`
	InvoiceAddress string `json:"invoice_address"`
	AttendeeCount  int    `json:"attendee_count"`

	// Установлено только для вхождений, созданных генератором серий.
	AutoGeneratedOn *time.Time `json:"auto_generated_on"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Overlaps проверяет пересечение с интервалом [begin, end).
func (b *Booking) Overlaps(begin, end time.Time) bool {
	return b.Begin.Before(end) && b.End.After(begin)
}

// IsAutoGenerated проверяет, создано ли бронирование генератором серий.
func (b *Booking) IsAutoGenerated() bool {
	return b.AutoGeneratedOn != nil
}
