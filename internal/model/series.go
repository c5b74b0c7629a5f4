package model

import (
	"time"

	"github.com/google/uuid"
)

type SeriesStatus string

const (
	SeriesStatusPending   SeriesStatus = "pending"   // Ожидает подтверждения менеджера
	SeriesStatusConfirmed SeriesStatus = "confirmed" // Подтверждено
	SeriesStatusCancelled SeriesStatus = "cancelled" // Отменено, новые вхождения не создаются
)

// RecurrenceSeries представляет шаблон регулярного бронирования.
// Правило повторения хранится в каноническом текстовом виде (Rule)
// и разворачивается планировщиком в конкретные бронирования.
type RecurrenceSeries struct {
	ID       int64     `json:"id"`
	PublicID uuid.UUID `json:"public_id"` // непрозрачный идентификатор для внешних ссылок

	// Каноническая запись правила, например
	// "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;COUNT=10".
	Rule string `json:"rule"`

	// Кэшированные границы серии. LastOccurrenceDate — nil, пока правило
	// бесконечно или последняя дата ещё не вычислена.
	FirstOccurrenceDate time.Time  `json:"first_occurrence_date"`
	LastOccurrenceDate  *time.Time `json:"last_occurrence_date"`

	// Поля-шаблон: копируются в каждое материализованное вхождение.
	ResourceID     int64  `json:"resource_id"`
	OrganizationID int64  `json:"organization_id"`
	UserID         int64  `json:"user_id"`
	CompensationID *int64 `json:"compensation_id"`
	AmountCents    *int64 `json:"amount_cents"` // фиксированная сумма за вхождение, nil = считать по ставке
	StartHour      int    `json:"start_hour"`
	StartMinute    int    `json:"start_minute"`
	EndHour        int    `json:"end_hour"`
	EndMinute      int    `json:"end_minute"`
	Activity       string `json:"activity"`
	InvoiceAddress string `json:"invoice_address"`
	AttendeeCount  int    `json:"attendee_count"`

	// Статус серии наследуется новыми вхождениями как статус по умолчанию.
	Status SeriesStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive проверяет, должен ли планировщик продлевать серию.
func (s *RecurrenceSeries) IsActive() bool {
	return s.Status == SeriesStatusPending || s.Status == SeriesStatusConfirmed
}

// DefaultBookingStatus возвращает статус, который наследуют новые вхождения.
func (s *RecurrenceSeries) DefaultBookingStatus() BookingStatus {
	if s.Status == SeriesStatusConfirmed {
		return BookingStatusConfirmed
	}
	return BookingStatusPending
}

// Duration возвращает длительность одного вхождения по стенным часам.
func (s *RecurrenceSeries) Duration() time.Duration {
	start := time.Duration(s.StartHour)*time.Hour + time.Duration(s.StartMinute)*time.Minute
	end := time.Duration(s.EndHour)*time.Hour + time.Duration(s.EndMinute)*time.Minute
	return end - start
}
