package repository

import (
	"context"
	"errors"

	"github.com/ERPlora/module-returns/internal/db"
	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type TableRepository struct {
	DB *db.Postgres
}

const tableColumns = `
	t.id, t.hub_id, t.area_id, COALESCE(a.name, ''), t.number, t.name, t.capacity, t.min_capacity,
	t.status, t.guests, t.waiter, t.opened_at, t.current_sale_id, t.pos_x, t.pos_y, t.is_active,
	t.created_at, t.updated_at
`

func scanTable(row pgx.Row) (*domain.Table, error) {
	var t domain.Table
	var openedAt pgtype.Timestamptz
	if err := row.Scan(
		&t.ID, &t.HubID, &t.AreaID, &t.AreaName, &t.Number, &t.Name, &t.Capacity, &t.MinCapacity,
		&t.Status, &t.Guests, &t.Waiter, &openedAt, &t.CurrentSaleID, &t.PosX, &t.PosY, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if openedAt.Valid {
		t.OpenedAt = &openedAt.Time
	}
	return &t, nil
}

type TableFilter struct {
	AreaID *int64
	Status domain.TableStatus
}

func (r TableRepository) List(ctx context.Context, hubID int64, f TableFilter) ([]domain.Table, error) {
	query := `
		SELECT ` + tableColumns + `
		FROM tables t
		LEFT JOIN areas a ON a.id = t.area_id
		WHERE t.hub_id=$1 AND t.deleted_at IS NULL
	`
	args := []any{hubID}
	if f.AreaID != nil {
		args = append(args, *f.AreaID)
		query += ` AND t.area_id=` + argPos(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += ` AND t.status=` + argPos(len(args))
	}
	query += ` ORDER BY a.sort_order ASC NULLS LAST, t.number ASC`

	rows, err := r.DB.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

func (r TableRepository) Get(ctx context.Context, hubID, id int64) (*domain.Table, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+tableColumns+`
		FROM tables t
		LEFT JOIN areas a ON a.id = t.area_id
		WHERE t.id=$1 AND t.hub_id=$2 AND t.deleted_at IS NULL
	`, id, hubID)
	return scanTable(row)
}

type SaveTableInput struct {
	AreaID      *int64
	Number      string
	Name        string
	Capacity    int
	MinCapacity int
	PosX        int
	PosY        int
	IsActive    bool
}

func (r TableRepository) Create(ctx context.Context, hubID int64, in SaveTableInput) (*domain.Table, error) {
	var id int64
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO tables (hub_id, area_id, number, name, capacity, min_capacity, status, pos_x, pos_y, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, now(), now())
		RETURNING id
	`, hubID, in.AreaID, in.Number, in.Name, in.Capacity, in.MinCapacity, domain.TableAvailable, in.PosX, in.PosY, in.IsActive).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, hubID, id)
}

func (r TableRepository) Update(ctx context.Context, hubID, id int64, in SaveTableInput) (*domain.Table, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE tables
		SET area_id=$1, number=$2, name=$3, capacity=$4, min_capacity=$5, pos_x=$6, pos_y=$7, is_active=$8, updated_at=now()
		WHERE id=$9 AND hub_id=$10 AND deleted_at IS NULL
	`, in.AreaID, in.Number, in.Name, in.Capacity, in.MinCapacity, in.PosX, in.PosY, in.IsActive, id, hubID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, hubID, id)
}

func (r TableRepository) Delete(ctx context.Context, hubID, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE tables SET deleted_at=now(), updated_at=now()
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

// Mutate loads the table under a row lock, applies fn and persists the
// session fields. Guard failures roll the transaction back untouched.
func (r TableRepository) Mutate(ctx context.Context, hubID, id int64, fn func(*domain.Table) error) (*domain.Table, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	t, err := lockTable(ctx, tx, hubID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	if err := saveTableSession(ctx, tx, t); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Transfer locks both tables (in id order, avoiding deadlocks) and moves the
// session from source to target. On guard failure neither row changes.
func (r TableRepository) Transfer(ctx context.Context, hubID, sourceID, targetID int64, fn func(source, target *domain.Table) error) (*domain.Table, *domain.Table, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	firstID, secondID := sourceID, targetID
	if targetID < sourceID {
		firstID, secondID = targetID, sourceID
	}
	first, err := lockTable(ctx, tx, hubID, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := lockTable(ctx, tx, hubID, secondID)
	if err != nil {
		return nil, nil, err
	}

	source, target := first, second
	if source.ID != sourceID {
		source, target = second, first
	}
	if err := fn(source, target); err != nil {
		return nil, nil, err
	}
	if err := saveTableSession(ctx, tx, source); err != nil {
		return nil, nil, err
	}
	if err := saveTableSession(ctx, tx, target); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return source, target, nil
}

func lockTable(ctx context.Context, tx pgx.Tx, hubID, id int64) (*domain.Table, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+tableColumns+`
		FROM tables t
		LEFT JOIN areas a ON a.id = t.area_id
		WHERE t.id=$1 AND t.hub_id=$2 AND t.deleted_at IS NULL
		FOR UPDATE OF t
	`, id, hubID)
	return scanTable(row)
}

func saveTableSession(ctx context.Context, tx pgx.Tx, t *domain.Table) error {
	_, err := tx.Exec(ctx, `
		UPDATE tables
		SET status=$1, guests=$2, waiter=$3, opened_at=$4, current_sale_id=$5, updated_at=now()
		WHERE id=$6
	`, t.Status, t.Guests, t.Waiter, t.OpenedAt, t.CurrentSaleID, t.ID)
	return err
}

type FloorStatus struct {
	TotalTables    int
	AvailableCount int
	OccupiedCount  int
	ReservedCount  int
	BlockedCount   int
}

// Status summarizes the floor for the live polling endpoint.
func (r TableRepository) Status(ctx context.Context, hubID int64) (*FloorStatus, error) {
	var s FloorStatus
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status='available'),
		       COUNT(*) FILTER (WHERE status='occupied'),
		       COUNT(*) FILTER (WHERE status='reserved'),
		       COUNT(*) FILTER (WHERE status='blocked')
		FROM tables
		WHERE hub_id=$1 AND deleted_at IS NULL AND is_active = TRUE
	`, hubID).Scan(&s.TotalTables, &s.AvailableCount, &s.OccupiedCount, &s.ReservedCount, &s.BlockedCount)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
