package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/clock"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/model"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/notify"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService обслуживает разовые бронирования: подача заявки,
// подтверждение менеджером, отмена.
type BookingService struct {
	bookings      BookingStore
	resources     ResourceStore
	compensations CompensationStore
	clock         clock.Clock
	location      *time.Location
	notifier      notify.Notifier
	logger        *zap.Logger
}

func NewBookingService(
	bookings BookingStore,
	resources ResourceStore,
	compensations CompensationStore,
	clk clock.Clock,
	location *time.Location,
	notifier notify.Notifier,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:      bookings,
		resources:     resources,
		compensations: compensations,
		clock:         clk,
		location:      location,
		notifier:      notifier,
		logger:        logger,
	}
}

// CreateBookingInput — заявка пользователя на разовое бронирование.
type CreateBookingInput struct {
	ResourceID     int64
	OrganizationID int64
	UserID         int64
	CompensationID *int64
	Date           time.Time
	StartHour      int
	StartMinute    int
	EndHour        int
	EndMinute      int
	Activity       string
	InvoiceAddress string
	AttendeeCount  int
}

// CreateBooking создаёт разовое бронирование со статусом pending.
// Занятый слот возвращается пользователю как ErrResourceAlreadyBooked.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*model.Booking, error) {
	startMinutes := input.StartHour*60 + input.StartMinute
	endMinutes := input.EndHour*60 + input.EndMinute
	if endMinutes <= startMinutes {
		return nil, ErrInvalidTimeRange
	}

	resource, err := s.resources.GetByID(ctx, input.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}
	if resource == nil || !resource.IsActive {
		return nil, fmt.Errorf("resource not found")
	}

	year, month, day := input.Date.Date()
	begin := time.Date(year, month, day, input.StartHour, input.StartMinute, 0, 0, s.location)
	end := time.Date(year, month, day, input.EndHour, input.EndMinute, 0, 0, s.location)

	if begin.Before(s.clock.Now()) {
		return nil, fmt.Errorf("cannot create booking in the past")
	}

	// Предварительная проверка занятости для внятной ошибки пользователю.
	// Авторитетна всё равно база: exclusion-ограничение отсечёт гонку
	// двух одновременных заявок на один слот.
	taken, err := s.bookings.ConfirmedOverlapExists(ctx, input.ResourceID, begin, end)
	if err != nil {
		return nil, fmt.Errorf("check resource availability: %w", err)
	}
	if taken {
		return nil, ErrResourceAlreadyBooked
	}

	total, err := s.bookingTotal(ctx, input.CompensationID, end.Sub(begin))
	if err != nil {
		return nil, err
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	booking := &model.Booking{
		UUID:           uuid.New(),
		Slug:           bookingSlug(date, input.Activity),
		ResourceID:     input.ResourceID,
		OrganizationID: input.OrganizationID,
		UserID:         input.UserID,
		CompensationID: input.CompensationID,
		Status:         model.BookingStatusPending,
		Begin:          begin,
		End:            end,
		Date:           date,
		StartHour:      input.StartHour,
		StartMinute:    input.StartMinute,
		EndHour:        input.EndHour,
		EndMinute:      input.EndMinute,
		TotalCents:     total,
		Activity:       input.Activity,
		InvoiceAddress: input.InvoiceAddress,
		AttendeeCount:  input.AttendeeCount,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrOverlapConflict) {
			return nil, ErrResourceAlreadyBooked
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("resource_id", booking.ResourceID),
		zap.Time("begin", booking.Begin))
	s.notifier.Notify(ctx, notify.EventBookingCreated, bookingPayload(booking))

	return booking, nil
}

// ConfirmBooking подтверждает бронирование. Если слот успели занять,
// база отвергает перевод в confirmed и пользователь получает
// ErrResourceAlreadyBooked — не фатальную ошибку.
func (s *BookingService) ConfirmBooking(ctx context.Context, id int64) error {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return fmt.Errorf("booking not found")
	}

	if booking.Status != model.BookingStatusPending {
		return fmt.Errorf("booking is not pending")
	}

	if err := s.bookings.UpdateStatus(ctx, id, model.BookingStatusConfirmed); err != nil {
		if errors.Is(err, repository.ErrOverlapConflict) {
			return ErrResourceAlreadyBooked
		}
		return fmt.Errorf("confirm booking: %w", err)
	}

	s.logger.Info("Booking confirmed", zap.Int64("booking_id", id))
	s.notifier.Notify(ctx, notify.EventBookingConfirmed, bookingPayload(booking))

	return nil
}

// CancelBooking отменяет бронирование.
func (s *BookingService) CancelBooking(ctx context.Context, id int64) error {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return fmt.Errorf("booking not found")
	}

	if err := s.bookings.UpdateStatus(ctx, id, model.BookingStatusCancelled); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}

	s.logger.Info("Booking cancelled", zap.Int64("booking_id", id))
	s.notifier.Notify(ctx, notify.EventBookingCancelled, bookingPayload(booking))

	return nil
}

// bookingTotal вычисляет стоимость по почасовой ставке компенсации.
func (s *BookingService) bookingTotal(ctx context.Context, compensationID *int64, duration time.Duration) (*int64, error) {
	if compensationID == nil {
		return nil, nil
	}

	compensation, err := s.compensations.GetByID(ctx, *compensationID)
	if err != nil {
		return nil, fmt.Errorf("get compensation: %w", err)
	}
	if compensation == nil {
		return nil, fmt.Errorf("compensation not found")
	}
	if compensation.IsFree() {
		return nil, nil
	}

	total := *compensation.HourlyRateCents * int64(duration/time.Minute) / 60
	return &total, nil
}

func bookingPayload(booking *model.Booking) map[string]any {
	return map[string]any{
		"booking_id":  booking.ID,
		"uuid":        booking.UUID,
		"resource_id": booking.ResourceID,
		"begin":       booking.Begin,
		"end":         booking.End,
	}
}
