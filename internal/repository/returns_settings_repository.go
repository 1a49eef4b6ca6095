package repository

import (
	"context"

	"github.com/ERPlora/module-returns/internal/db"
	"github.com/ERPlora/module-returns/internal/domain"
)

type ReturnsSettingsRepository struct {
	DB *db.Postgres
}

// Get returns the hub's settings row, creating it with defaults on first use.
func (r ReturnsSettingsRepository) Get(ctx context.Context, hubID int64) (*domain.ReturnsSettings, error) {
	def := domain.DefaultReturnsSettings(hubID)
	var s domain.ReturnsSettings
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO returns_settings (hub_id, allow_returns, return_window_days, allow_store_credit, require_receipt, auto_restore_stock, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		ON CONFLICT (hub_id) DO UPDATE SET hub_id=EXCLUDED.hub_id
		RETURNING hub_id, allow_returns, return_window_days, allow_store_credit, require_receipt, auto_restore_stock, updated_at
	`, hubID, def.AllowReturns, def.ReturnWindowDays, def.AllowStoreCredit, def.RequireReceipt, def.AutoRestoreStock).Scan(
		&s.HubID, &s.AllowReturns, &s.ReturnWindowDays, &s.AllowStoreCredit, &s.RequireReceipt, &s.AutoRestoreStock, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r ReturnsSettingsRepository) Save(ctx context.Context, s domain.ReturnsSettings) (*domain.ReturnsSettings, error) {
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO returns_settings (hub_id, allow_returns, return_window_days, allow_store_credit, require_receipt, auto_restore_stock, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		ON CONFLICT (hub_id) DO UPDATE SET
			allow_returns=EXCLUDED.allow_returns,
			return_window_days=EXCLUDED.return_window_days,
			allow_store_credit=EXCLUDED.allow_store_credit,
			require_receipt=EXCLUDED.require_receipt,
			auto_restore_stock=EXCLUDED.auto_restore_stock,
			updated_at=now()
		RETURNING hub_id, allow_returns, return_window_days, allow_store_credit, require_receipt, auto_restore_stock, updated_at
	`, s.HubID, s.AllowReturns, s.ReturnWindowDays, s.AllowStoreCredit, s.RequireReceipt, s.AutoRestoreStock).Scan(
		&s.HubID, &s.AllowReturns, &s.ReturnWindowDays, &s.AllowStoreCredit, &s.RequireReceipt, &s.AutoRestoreStock, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
