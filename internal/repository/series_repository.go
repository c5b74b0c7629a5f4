package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/model"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const seriesColumns = `id, public_id, rule, first_occurrence_date, last_occurrence_date,
		resource_id, organization_id, user_id, compensation_id, amount_cents,
		start_hour, start_minute, end_hour, end_minute, activity, invoice_address,
		attendee_count, status, created_at, updated_at`

// SeriesRepository управляет сериями регулярных бронирований в базе данных
type SeriesRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewSeriesRepository(pool *pgxpool.Pool, logger *zap.Logger) *SeriesRepository {
	return &SeriesRepository{
		pool:   pool,
		logger: logger,
	}
}

// Create создаёт новую серию
func (r *SeriesRepository) Create(ctx context.Context, series *model.RecurrenceSeries) error {
	query := `
		INSERT INTO booking_series (public_id, rule, first_occurrence_date, last_occurrence_date,
			resource_id, organization_id, user_id, compensation_id, amount_cents,
			start_hour, start_minute, end_hour, end_minute, activity, invoice_address,
			attendee_count, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		series.PublicID,
		series.Rule,
		series.FirstOccurrenceDate,
		series.LastOccurrenceDate,
		series.ResourceID,
		series.OrganizationID,
		series.UserID,
		series.CompensationID,
		series.AmountCents,
		series.StartHour,
		series.StartMinute,
		series.EndHour,
		series.EndMinute,
		series.Activity,
		series.InvoiceAddress,
		series.AttendeeCount,
		series.Status,
	).Scan(&series.ID, &series.CreatedAt, &series.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking series: %w", err)
	}

	return nil
}

// GetByID получает серию по ID
func (r *SeriesRepository) GetByID(ctx context.Context, id int64) (*model.RecurrenceSeries, error) {
	query := `SELECT ` + seriesColumns + ` FROM booking_series WHERE id = $1`

	series, err := scanSeries(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking series by id: %w", err)
	}

	return series, nil
}

// GetByPublicID получает серию по внешнему идентификатору
func (r *SeriesRepository) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*model.RecurrenceSeries, error) {
	query := `SELECT ` + seriesColumns + ` FROM booking_series WHERE public_id = $1`

	series, err := scanSeries(r.pool.QueryRow(ctx, query, publicID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking series by public id: %w", err)
	}

	return series, nil
}

// GetAllActive получает все серии, подлежащие продлению, в порядке создания.
// Порядок стабилен, чтобы повторные запуски планировщика были воспроизводимы.
func (r *SeriesRepository) GetAllActive(ctx context.Context) ([]*model.RecurrenceSeries, error) {
	query := `
		SELECT ` + seriesColumns + `
		FROM booking_series
		WHERE status IN ('pending', 'confirmed')
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all active booking series: %w", err)
	}
	defer rows.Close()

	var list []*model.RecurrenceSeries
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking series: %w", err)
		}
		list = append(list, series)
	}

	return list, nil
}

// UpdateStatus обновляет статус серии
func (r *SeriesRepository) UpdateStatus(ctx context.Context, id int64, status model.SeriesStatus) error {
	query := `UPDATE booking_series SET status = $1, updated_at = now() WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update booking series status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking series not found")
	}

	return nil
}

// UpdateLastOccurrenceDate обновляет кэшированную дату последнего вхождения.
// Планировщик никогда не меняет само правило, только производные поля.
func (r *SeriesRepository) UpdateLastOccurrenceDate(ctx context.Context, id int64, date *time.Time) error {
	query := `UPDATE booking_series SET last_occurrence_date = $1, updated_at = now() WHERE id = $2`

	_, err := r.pool.Exec(ctx, query, date, id)
	if err != nil {
		return fmt.Errorf("update last occurrence date: %w", err)
	}

	return nil
}

func scanSeries(row pgx.Row) (*model.RecurrenceSeries, error) {
	var series model.RecurrenceSeries
	err := row.Scan(
		&series.ID,
		&series.PublicID,
		&series.Rule,
		&series.FirstOccurrenceDate,
		&series.LastOccurrenceDate,
		&series.ResourceID,
		&series.OrganizationID,
		&series.UserID,
		&series.CompensationID,
		&series.AmountCents,
		&series.StartHour,
		&series.StartMinute,
		&series.EndHour,
		&series.EndMinute,
		&series.Activity,
		&series.InvoiceAddress,
		&series.AttendeeCount,
		&series.Status,
		&series.CreatedAt,
		&series.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &series, nil
}
