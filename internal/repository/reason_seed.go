package repository

import (
	"context"

	"github.com/ERPlora/module-returns/internal/domain"
)

func (r ReasonRepository) SeedDefaults(ctx context.Context, hubID int64) error {
	defaults := []domain.ReturnReason{
		{Name: "Defective", Description: "Product arrived or became defective", RestocksInventory: false, RequiresNote: true, SortOrder: 10, IsActive: true},
		{Name: "Wrong item", Description: "Customer received a different item", RestocksInventory: true, SortOrder: 20, IsActive: true},
		{Name: "Wrong size", RestocksInventory: true, SortOrder: 30, IsActive: true},
		{Name: "Changed mind", RestocksInventory: true, RequiresNote: true, SortOrder: 40, IsActive: true},
		{Name: "Damaged in transit", RestocksInventory: false, SortOrder: 50, IsActive: true},
	}

	for _, re := range defaults {
		// Idempotent: (hub_id, name) is unique among live rows.
		_, err := r.DB.Pool.Exec(ctx, `
			INSERT INTO return_reasons (hub_id, name, description, restocks_inventory, requires_note, sort_order, is_active, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
			ON CONFLICT (hub_id, name) WHERE deleted_at IS NULL DO NOTHING
		`, hubID, re.Name, re.Description, re.RestocksInventory, re.RequiresNote, re.SortOrder, re.IsActive)
		if err != nil {
			return err
		}
	}
	return nil
}
