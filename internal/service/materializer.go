package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/clock"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/model"
	"github.com/google/uuid"
)

// Materializer превращает дату вхождения в несохранённое бронирование.
// Сам он ничего не пишет: решение о сохранении принимает вызывающая
// сторона, поэтому материализация вхождений одного окна независима
// и может выполняться параллельно.
type Materializer struct {
	bookings      BookingStore
	resources     ResourceStore
	compensations CompensationStore
	clock         clock.Clock
	location      *time.Location
}

func NewMaterializer(
	bookings BookingStore,
	resources ResourceStore,
	compensations CompensationStore,
	clk clock.Clock,
	location *time.Location,
) *Materializer {
	return &Materializer{
		bookings:      bookings,
		resources:     resources,
		compensations: compensations,
		clock:         clk,
		location:      location,
	}
}

// Materialize строит бронирование для вхождения серии в указанную дату.
// Интервал собирается из стенных часов: сначала локальные дата и время,
// затем зона — так переход на летнее/зимнее время не сдвигает начало.
// Если ресурс уже занят подтверждённым бронированием, статус
// принудительно unavailable.
func (m *Materializer) Materialize(ctx context.Context, series *model.RecurrenceSeries, occurrence time.Time) (*model.Booking, error) {
	year, month, day := occurrence.In(m.location).Date()
	begin := time.Date(year, month, day, series.StartHour, series.StartMinute, 0, 0, m.location)
	end := time.Date(year, month, day, series.EndHour, series.EndMinute, 0, 0, m.location)
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	resource, err := m.resources.GetByID(ctx, series.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}
	if resource == nil {
		return nil, &MaterializationError{SeriesID: series.ID, Date: date, Reason: "resource not found"}
	}

	total, err := m.occurrenceTotal(ctx, series, date, end.Sub(begin))
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	booking := &model.Booking{
		UUID:            uuid.New(),
		Slug:            bookingSlug(date, series.Activity),
		ResourceID:      series.ResourceID,
		OrganizationID:  series.OrganizationID,
		UserID:          series.UserID,
		CompensationID:  series.CompensationID,
		SeriesID:        &series.ID,
		Status:          series.DefaultBookingStatus(),
		Begin:           begin,
		End:             end,
		Date:            date,
		StartHour:       series.StartHour,
		StartMinute:     series.StartMinute,
		EndHour:         series.EndHour,
		EndMinute:       series.EndMinute,
		TotalCents:      total,
		Activity:        series.Activity,
		InvoiceAddress:  series.InvoiceAddress,
		AttendeeCount:   series.AttendeeCount,
		AutoGeneratedOn: &now,
	}

	// Занятость проверяется против любых подтверждённых бронирований
	// ресурса, не только вхождений этой серии.
	taken, err := m.bookings.ConfirmedOverlapExists(ctx, series.ResourceID, begin, end)
	if err != nil {
		return nil, fmt.Errorf("check resource availability: %w", err)
	}
	if taken {
		booking.Status = model.BookingStatusUnavailable
	}

	return booking, nil
}

// occurrenceTotal вычисляет стоимость одного вхождения: фиксированная
// сумма серии, иначе почасовая ставка компенсации, иначе nil (бесплатно).
func (m *Materializer) occurrenceTotal(ctx context.Context, series *model.RecurrenceSeries, date time.Time, duration time.Duration) (*int64, error) {
	if series.AmountCents != nil {
		amount := *series.AmountCents
		return &amount, nil
	}

	if series.CompensationID == nil {
		return nil, nil
	}

	compensation, err := m.compensations.GetByID(ctx, *series.CompensationID)
	if err != nil {
		return nil, fmt.Errorf("get compensation: %w", err)
	}
	if compensation == nil {
		return nil, &MaterializationError{SeriesID: series.ID, Date: date, Reason: "compensation not found"}
	}
	if compensation.IsFree() {
		return nil, nil
	}

	total := *compensation.HourlyRateCents * int64(duration/time.Minute) / 60
	return &total, nil
}

// bookingSlug строит человекочитаемый идентификатор из даты и описания.
func bookingSlug(date time.Time, activity string) string {
	slug := strings.ToLower(activity)
	slug = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return '-'
	}, slug)
	slug = strings.Trim(strings.Join(strings.FieldsFunc(slug, func(r rune) bool { return r == '-' }), "-"), "-")
	if slug == "" {
		slug = "booking"
	}
	return date.Format("2006-01-02") + "-" + slug
}
