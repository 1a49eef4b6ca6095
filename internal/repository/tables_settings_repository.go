package repository

import (
	"context"

	"github.com/ERPlora/module-returns/internal/db"
	"github.com/ERPlora/module-returns/internal/domain"
)

type TablesSettingsRepository struct {
	DB *db.Postgres
}

func (r TablesSettingsRepository) Get(ctx context.Context, hubID int64) (*domain.TablesSettings, error) {
	def := domain.DefaultTablesSettings(hubID)
	var s domain.TablesSettings
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO tables_settings (hub_id, show_table_timer, show_table_total, default_table_capacity, auto_close_on_payment, require_table_for_order, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		ON CONFLICT (hub_id) DO UPDATE SET hub_id=EXCLUDED.hub_id
		RETURNING hub_id, show_table_timer, show_table_total, default_table_capacity, auto_close_on_payment, require_table_for_order, updated_at
	`, hubID, def.ShowTableTimer, def.ShowTableTotal, def.DefaultTableCapacity, def.AutoCloseOnPayment, def.RequireTableForOrder).Scan(
		&s.HubID, &s.ShowTableTimer, &s.ShowTableTotal, &s.DefaultTableCapacity, &s.AutoCloseOnPayment, &s.RequireTableForOrder, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r TablesSettingsRepository) Save(ctx context.Context, s domain.TablesSettings) (*domain.TablesSettings, error) {
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO tables_settings (hub_id, show_table_timer, show_table_total, default_table_capacity, auto_close_on_payment, require_table_for_order, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		ON CONFLICT (hub_id) DO UPDATE SET
			show_table_timer=EXCLUDED.show_table_timer,
			show_table_total=EXCLUDED.show_table_total,
			default_table_capacity=EXCLUDED.default_table_capacity,
			auto_close_on_payment=EXCLUDED.auto_close_on_payment,
			require_table_for_order=EXCLUDED.require_table_for_order,
			updated_at=now()
		RETURNING hub_id, show_table_timer, show_table_total, default_table_capacity, auto_close_on_payment, require_table_for_order, updated_at
	`, s.HubID, s.ShowTableTimer, s.ShowTableTotal, s.DefaultTableCapacity, s.AutoCloseOnPayment, s.RequireTableForOrder).Scan(
		&s.HubID, &s.ShowTableTimer, &s.ShowTableTotal, &s.DefaultTableCapacity, &s.AutoCloseOnPayment, &s.RequireTableForOrder, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
