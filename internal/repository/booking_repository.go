package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/model"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ограничения из миграций, нарушения которых переводятся в доменные ошибки.
const (
	constraintNoConfirmedOverlap = "bookings_no_confirmed_overlap"
	constraintSeriesOccurrence   = "bookings_series_id_date_key"
)

// ErrOverlapConflict — база отвергла пересечение с подтверждённым
// бронированием того же ресурса (авторитетная проверка доступности).
var ErrOverlapConflict = errors.New("booking overlaps a confirmed booking for the resource")

// ErrDuplicateOccurrence — вхождение серии на эту дату уже материализовано.
var ErrDuplicateOccurrence = errors.New("occurrence already materialized for this series and date")

const bookingColumns = `id, uuid, slug, resource_id, organization_id, user_id, compensation_id,
		series_id, status, begin_at, end_at, date, start_hour, start_minute, end_hour, end_minute,
		total_cents, activity, invoice_address, attendee_count, auto_generated_on, created_at, updated_at`

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// Create создаёт новое бронирование. Нарушения ограничений базы
// переводятся в ErrOverlapConflict и ErrDuplicateOccurrence.
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (uuid, slug, resource_id, organization_id, user_id, compensation_id,
			series_id, status, begin_at, end_at, date, start_hour, start_minute, end_hour, end_minute,
			total_cents, activity, invoice_address, attendee_count, auto_generated_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		booking.UUID,
		booking.Slug,
		booking.ResourceID,
		booking.OrganizationID,
		booking.UserID,
		booking.CompensationID,
		booking.SeriesID,
		booking.Status,
		booking.Begin,
		booking.End,
		booking.Date,
		booking.StartHour,
		booking.StartMinute,
		booking.EndHour,
		booking.EndMinute,
		booking.TotalCents,
		booking.Activity,
		booking.InvoiceAddress,
		booking.AttendeeCount,
		booking.AutoGeneratedOn,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if base.IsExclusionViolation(err) {
			return ErrOverlapConflict
		}
		if base.IsUniqueViolation(err, constraintSeriesOccurrence) {
			return ErrDuplicateOccurrence
		}
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// GetBySeriesID получает все вхождения серии в порядке возрастания начала.
func (r *BookingRepository) GetBySeriesID(ctx context.Context, seriesID int64) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE series_id = $1 ORDER BY begin_at ASC`

	rows, err := r.pool.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("get bookings by series: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ConfirmedOverlapExists проверяет, пересекает ли интервал [begin, end)
// какое-либо подтверждённое бронирование ресурса.
func (r *BookingRepository) ConfirmedOverlapExists(ctx context.Context, resourceID int64, begin, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE resource_id = $1 AND status = 'confirmed'
			  AND begin_at < $3 AND end_at > $2
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, resourceID, begin, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("check confirmed overlap: %w", err)
	}

	return exists, nil
}

// SeriesOverlapExists проверяет, есть ли у серии уже сохранённое вхождение
// с указанным статусом, пересекающее интервал [begin, end) на том же ресурсе.
func (r *BookingRepository) SeriesOverlapExists(ctx context.Context, seriesID, resourceID int64, begin, end time.Time, status model.BookingStatus) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE series_id = $1 AND resource_id = $2 AND status = $5
			  AND begin_at < $4 AND end_at > $3
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, seriesID, resourceID, begin, end, status).Scan(&exists); err != nil {
		return false, fmt.Errorf("check series overlap: %w", err)
	}

	return exists, nil
}

// MaxOccurrenceDate возвращает дату самого позднего вхождения серии.
// Горизонт серии выводится из сохранённых строк, а не из счётчика,
// поэтому падение между записью и обновлением кэша безопасно.
func (r *BookingRepository) MaxOccurrenceDate(ctx context.Context, seriesID int64) (*time.Time, error) {
	query := `SELECT max(date) FROM bookings WHERE series_id = $1`

	var max *time.Time
	if err := r.pool.QueryRow(ctx, query, seriesID).Scan(&max); err != nil {
		return nil, fmt.Errorf("get max occurrence date: %w", err)
	}

	return max, nil
}

// UpdateStatus обновляет статус бронирования
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) error {
	query := `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		if base.IsExclusionViolation(err) {
			return ErrOverlapConflict
		}
		return fmt.Errorf("update booking status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// CancelFutureBySeries отменяет все ещё не начавшиеся вхождения серии.
// Возвращает количество отменённых бронирований.
func (r *BookingRepository) CancelFutureBySeries(ctx context.Context, seriesID int64, from time.Time) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = now()
		WHERE series_id = $1 AND begin_at >= $2 AND status IN ('pending', 'confirmed', 'unavailable')
	`

	result, err := r.pool.Exec(ctx, query, seriesID, from)
	if err != nil {
		return 0, fmt.Errorf("cancel future bookings by series: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.UUID,
		&booking.Slug,
		&booking.ResourceID,
		&booking.OrganizationID,
		&booking.UserID,
		&booking.CompensationID,
		&booking.SeriesID,
		&booking.Status,
		&booking.Begin,
		&booking.End,
		&booking.Date,
		&booking.StartHour,
		&booking.StartMinute,
		&booking.EndHour,
		&booking.EndMinute,
		&booking.TotalCents,
		&booking.Activity,
		&booking.InvoiceAddress,
		&booking.AttendeeCount,
		&booking.AutoGeneratedOn,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func scanBookings(rows pgx.Rows) ([]*model.Booking, error) {
	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, nil
}
