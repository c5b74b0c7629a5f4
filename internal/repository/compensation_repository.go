package repository

import (
	"context"
	"fmt"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/model"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CompensationRepository struct {
	pool *pgxpool.Pool
}

func NewCompensationRepository(pool *pgxpool.Pool) *CompensationRepository {
	return &CompensationRepository{pool: pool}
}

// GetByID получает компенсацию по ID
func (r *CompensationRepository) GetByID(ctx context.Context, id int64) (*model.Compensation, error) {
	query := `
		SELECT id, name, hourly_rate_cents, is_active, created_at
		FROM compensations
		WHERE id = $1
	`

	var compensation model.Compensation
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&compensation.ID,
		&compensation.Name,
		&compensation.HourlyRateCents,
		&compensation.IsActive,
		&compensation.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get compensation by id: %w", err)
	}

	return &compensation, nil
}
