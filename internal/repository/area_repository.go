package repository

import (
	"context"
	"errors"

	"github.com/ERPlora/module-returns/internal/db"
	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/jackc/pgx/v5"
)

type AreaRepository struct {
	DB *db.Postgres
}

// List returns areas ordered by display order, with live table counts.
func (r AreaRepository) List(ctx context.Context, hubID int64) ([]domain.Area, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT a.id, a.hub_id, a.name, a.description, a.color, a.icon, a.sort_order, a.is_active,
		       a.created_at, a.updated_at,
		       COUNT(t.id),
		       COUNT(t.id) FILTER (WHERE t.status='occupied'),
		       COUNT(t.id) FILTER (WHERE t.status='available')
		FROM areas a
		LEFT JOIN tables t ON t.area_id = a.id AND t.deleted_at IS NULL AND t.is_active = TRUE
		WHERE a.hub_id=$1 AND a.deleted_at IS NULL
		GROUP BY a.id
		ORDER BY a.sort_order ASC, a.name ASC
	`, hubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Area
	for rows.Next() {
		var a domain.Area
		if err := rows.Scan(&a.ID, &a.HubID, &a.Name, &a.Description, &a.Color, &a.Icon, &a.SortOrder, &a.IsActive,
			&a.CreatedAt, &a.UpdatedAt, &a.TableCount, &a.OccupiedCount, &a.AvailableCount); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r AreaRepository) Get(ctx context.Context, hubID, id int64) (*domain.Area, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, hub_id, name, description, color, icon, sort_order, is_active, created_at, updated_at
		FROM areas
		WHERE id=$1 AND hub_id=$2 AND deleted_at IS NULL
	`, id, hubID)
	var a domain.Area
	if err := row.Scan(&a.ID, &a.HubID, &a.Name, &a.Description, &a.Color, &a.Icon, &a.SortOrder, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r AreaRepository) Create(ctx context.Context, a domain.Area) (*domain.Area, error) {
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO areas (hub_id, name, description, color, icon, sort_order, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
		RETURNING id, created_at, updated_at
	`, a.HubID, a.Name, a.Description, a.Color, a.Icon, a.SortOrder, a.IsActive).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r AreaRepository) Update(ctx context.Context, a domain.Area) (*domain.Area, error) {
	err := r.DB.Pool.QueryRow(ctx, `
		UPDATE areas
		SET name=$1, description=$2, color=$3, icon=$4, sort_order=$5, is_active=$6, updated_at=now()
		WHERE id=$7 AND hub_id=$8 AND deleted_at IS NULL
		RETURNING created_at, updated_at
	`, a.Name, a.Description, a.Color, a.Icon, a.SortOrder, a.IsActive, a.ID, a.HubID).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r AreaRepository) Delete(ctx context.Context, hubID, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE areas SET deleted_at=now(), updated_at=now()
		WHERE id=$1 AND hub_id=$2 AND deleted_at IS NULL
	`, id, hubID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
