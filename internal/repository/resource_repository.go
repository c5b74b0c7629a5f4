package repository

import (
	"context"
	"fmt"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/model"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ResourceRepository struct {
	pool *pgxpool.Pool
}

func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

// GetByID получает ресурс по ID
func (r *ResourceRepository) GetByID(ctx context.Context, id int64) (*model.Resource, error) {
	query := `
		SELECT id, organization_id, name, slug, kind, description, is_active, created_at
		FROM resources
		WHERE id = $1
	`

	var resource model.Resource
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&resource.ID,
		&resource.OrganizationID,
		&resource.Name,
		&resource.Slug,
		&resource.Kind,
		&resource.Description,
		&resource.IsActive,
		&resource.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get resource by id: %w", err)
	}

	return &resource, nil
}

// GetActive получает все активные ресурсы
func (r *ResourceRepository) GetActive(ctx context.Context) ([]*model.Resource, error) {
	query := `
		SELECT id, organization_id, name, slug, kind, description, is_active, created_at
		FROM resources
		WHERE is_active = true
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active resources: %w", err)
	}
	defer rows.Close()

	var resources []*model.Resource
	for rows.Next() {
		var resource model.Resource
		err := rows.Scan(
			&resource.ID,
			&resource.OrganizationID,
			&resource.Name,
			&resource.Slug,
			&resource.Kind,
			&resource.Description,
			&resource.IsActive,
			&resource.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, &resource)
	}

	return resources, nil
}
