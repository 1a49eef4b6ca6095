package repository

import (
	"context"
	"errors"

	"github.com/ERPlora/module-returns/internal/db"
	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ReasonRepository struct {
	DB *db.Postgres
}

func (r ReasonRepository) List(ctx context.Context, hubID int64, activeOnly bool) ([]domain.ReturnReason, error) {
	query := `
		SELECT id, hub_id, name, description, restocks_inventory, requires_note, sort_order, is_active, created_at, updated_at
		FROM return_reasons
		WHERE hub_id=$1 AND deleted_at IS NULL
	`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY sort_order ASC, name ASC`

	rows, err := r.DB.Pool.Query(ctx, query, hubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.ReturnReason
	for rows.Next() {
		var re domain.ReturnReason
		if err := rows.Scan(&re.ID, &re.HubID, &re.Name, &re.Description, &re.RestocksInventory, &re.RequiresNote, &re.SortOrder, &re.IsActive, &re.CreatedAt, &re.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, re)
	}
	return items, rows.Err()
}

func (r ReasonRepository) Get(ctx context.Context, hubID, id int64) (*domain.ReturnReason, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, hub_id, name, description, restocks_inventory, requires_note, sort_order, is_active, created_at, updated_at
		FROM return_reasons
		WHERE id=$1 AND hub_id=$2 AND deleted_at IS NULL
	`, id, hubID)
	var re domain.ReturnReason
	if err := row.Scan(&re.ID, &re.HubID, &re.Name, &re.Description, &re.RestocksInventory, &re.RequiresNote, &re.SortOrder, &re.IsActive, &re.CreatedAt, &re.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &re, nil
}

func (r ReasonRepository) Create(ctx context.Context, re domain.ReturnReason) (*domain.ReturnReason, error) {
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO return_reasons (hub_id, name, description, restocks_inventory, requires_note, sort_order, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
		RETURNING id, created_at, updated_at
	`, re.HubID, re.Name, re.Description, re.RestocksInventory, re.RequiresNote, re.SortOrder, re.IsActive).Scan(&re.ID, &re.CreatedAt, &re.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &re, nil
}

func (r ReasonRepository) Update(ctx context.Context, re domain.ReturnReason) (*domain.ReturnReason, error) {
	err := r.DB.Pool.QueryRow(ctx, `
		UPDATE return_reasons
		SET name=$1, description=$2, restocks_inventory=$3, requires_note=$4, sort_order=$5, is_active=$6, updated_at=now()
		WHERE id=$7 AND hub_id=$8 AND deleted_at IS NULL
		RETURNING created_at, updated_at
	`, re.Name, re.Description, re.RestocksInventory, re.RequiresNote, re.SortOrder, re.IsActive, re.ID, re.HubID).Scan(&re.CreatedAt, &re.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &re, nil
}

func (r ReasonRepository) Delete(ctx context.Context, hubID, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE return_reasons SET deleted_at=now(), updated_at=now()
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
