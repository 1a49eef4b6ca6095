package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/ERPlora/module-returns/internal/db"
	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type ReturnRepository struct {
	DB *db.Postgres
}

type ReturnFilter struct {
	Query        string
	Status       domain.ReturnStatus
	RefundMethod domain.RefundMethod
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
}

type CreateReturnInput struct {
	OriginalSaleID *int64
	CustomerID     *int64
	CustomerName   string
	EmployeeID     *int64
	ReasonID       *int64
	ReasonNotes    string
	RefundMethod   domain.RefundMethod
	Notes          string
}

const returnColumns = `
	id, hub_id, number, original_sale_id, customer_id, customer_name, employee_id,
	reason_id, reason_notes, status, subtotal, tax_amount, total_refund,
	refund_method, notes, approved_by, approved_at, completed_at, created_at, updated_at
`

func scanReturn(row pgx.Row) (*domain.Return, error) {
	var ret domain.Return
	var approvedAt, completedAt pgtype.Timestamptz
	if err := row.Scan(
		&ret.ID, &ret.HubID, &ret.Number, &ret.OriginalSaleID, &ret.CustomerID, &ret.CustomerName, &ret.EmployeeID,
		&ret.ReasonID, &ret.ReasonNotes, &ret.Status, &ret.Subtotal.Amount, &ret.TaxAmount.Amount, &ret.TotalRefund.Amount,
		&ret.RefundMethod, &ret.Notes, &ret.ApprovedBy, &approvedAt, &completedAt, &ret.CreatedAt, &ret.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if approvedAt.Valid {
		ret.ApprovedAt = &approvedAt.Time
	}
	if completedAt.Valid {
		ret.CompletedAt = &completedAt.Time
	}
	return &ret, nil
}

func (r ReturnRepository) List(ctx context.Context, hubID int64, f ReturnFilter) ([]domain.Return, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	query := `
		SELECT ` + returnColumns + `
		FROM returns
		WHERE hub_id=$1 AND deleted_at IS NULL
	`
	args := []any{hubID}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		p := argPos(len(args))
		query += ` AND (number ILIKE ` + p + ` OR customer_name ILIKE ` + p + ` OR reason_notes ILIKE ` + p + `)`
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += ` AND status=` + argPos(len(args))
	}
	if f.RefundMethod != "" {
		args = append(args, f.RefundMethod)
		query += ` AND refund_method=` + argPos(len(args))
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		query += ` AND created_at >= ` + argPos(len(args))
	}
	if f.EndDate != nil {
		args = append(args, f.EndDate.AddDate(0, 0, 1))
		query += ` AND created_at < ` + argPos(len(args))
	}
	args = append(args, f.Limit)
	query += ` ORDER BY created_at DESC LIMIT ` + argPos(len(args))

	rows, err := r.DB.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *ret)
	}
	return items, rows.Err()
}

func (r ReturnRepository) Get(ctx context.Context, hubID, id int64) (*domain.Return, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+returnColumns+`
		FROM returns
		WHERE id=$1 AND hub_id=$2 AND deleted_at IS NULL
	`, id, hubID)
	ret, err := scanReturn(row)
	if err != nil {
		return nil, err
	}
	items, err := r.Items(ctx, hubID, id)
	if err != nil {
		return nil, err
	}
	ret.Items = items
	return ret, nil
}

// Create inserts a return and assigns the next per-day number. Concurrent
// creates for a hub serialize on an advisory lock held until commit, so the
// max read below always sees the previous writer's number; the unique index
// on (hub_id, number) backstops any writer that bypasses the lock.
func (r ReturnRepository) Create(ctx context.Context, hubID int64, in CreateReturnInput) (*domain.Return, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		SELECT pg_advisory_xact_lock(hashtext('return_number:' || $1::text))
	`, hubID); err != nil {
		return nil, err
	}

	prefix := domain.ReturnNumberPrefix(time.Now())
	var last string
	err = tx.QueryRow(ctx, `
		SELECT number FROM returns
		WHERE hub_id=$1 AND number LIKE $2 || '%'
		ORDER BY number DESC
		LIMIT 1
	`, hubID, prefix).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	number := domain.NextReturnNumber(prefix, last)

	row := tx.QueryRow(ctx, `
		INSERT INTO returns (hub_id, number, original_sale_id, customer_id, customer_name, employee_id,
		                     reason_id, reason_notes, status, refund_method, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, now(), now())
		RETURNING `+returnColumns+`
	`, hubID, number, in.OriginalSaleID, in.CustomerID, in.CustomerName, in.EmployeeID,
		in.ReasonID, in.ReasonNotes, domain.ReturnPending, in.RefundMethod, in.Notes)
	ret, err := scanReturn(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

type UpdateReturnInput struct {
	OriginalSaleID *int64
	CustomerID     *int64
	CustomerName   string
	ReasonID       *int64
	ReasonNotes    string
	RefundMethod   domain.RefundMethod
	Notes          string
}

func (r ReturnRepository) Update(ctx context.Context, hubID, id int64, in UpdateReturnInput) (*domain.Return, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE returns
		SET original_sale_id=$1, customer_id=$2, customer_name=$3, reason_id=$4,
		    reason_notes=$5, refund_method=$6, notes=$7, updated_at=now()
		WHERE id=$8 AND hub_id=$9 AND deleted_at IS NULL
		RETURNING `+returnColumns+`
	`, in.OriginalSaleID, in.CustomerID, in.CustomerName, in.ReasonID,
		in.ReasonNotes, in.RefundMethod, in.Notes, id, hubID)
	return scanReturn(row)
}

func (r ReturnRepository) SoftDelete(ctx context.Context, hubID, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE returns SET deleted_at=now(), updated_at=now()
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

// Transition loads the return under a row lock, applies fn and persists the
// workflow fields. The optional after hook runs inside the same transaction.
func (r ReturnRepository) Transition(ctx context.Context, hubID, id int64, fn func(*domain.Return) error, after func(context.Context, pgx.Tx, *domain.Return) error) (*domain.Return, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+returnColumns+`
		FROM returns
		WHERE id=$1 AND hub_id=$2 AND deleted_at IS NULL
		FOR UPDATE
	`, id, hubID)
	ret, err := scanReturn(row)
	if err != nil {
		return nil, err
	}
	if err := fn(ret); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE returns
		SET status=$1, approved_by=$2, approved_at=$3, completed_at=$4, updated_at=now()
		WHERE id=$5
	`, ret.Status, ret.ApprovedBy, ret.ApprovedAt, ret.CompletedAt, ret.ID)
	if err != nil {
		return nil, err
	}

	if after != nil {
		if err := after(ctx, tx, ret); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

func (r ReturnRepository) Items(ctx context.Context, hubID, returnID int64) ([]domain.ReturnItem, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, hub_id, return_id, sale_item_id, product_id, product_name, product_sku,
		       quantity, unit_price, tax_rate_bps, refund_amount, condition, restock, notes, created_at
		FROM return_items
		WHERE return_id=$1 AND hub_id=$2 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`, returnID, hubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.ReturnItem
	for rows.Next() {
		var it domain.ReturnItem
		if err := rows.Scan(&it.ID, &it.HubID, &it.ReturnID, &it.SaleItemID, &it.ProductID, &it.ProductName, &it.ProductSKU,
			&it.Quantity, &it.UnitPrice.Amount, &it.TaxRateBps, &it.RefundAmount.Amount, &it.Condition, &it.Restock, &it.Notes, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AddItem inserts an item and recalculates the parent totals atomically.
func (r ReturnRepository) AddItem(ctx context.Context, hubID int64, it domain.ReturnItem) (*domain.ReturnItem, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM returns WHERE id=$1 AND hub_id=$2 AND deleted_at IS NULL)
	`, it.ReturnID, hubID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO return_items (hub_id, return_id, sale_item_id, product_id, product_name, product_sku,
		                          quantity, unit_price, tax_rate_bps, refund_amount, condition, restock, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, now())
		RETURNING id, created_at
	`, hubID, it.ReturnID, it.SaleItemID, it.ProductID, it.ProductName, it.ProductSKU,
		it.Quantity, it.UnitPrice.Amount, it.TaxRateBps, it.RefundAmount.Amount, it.Condition, it.Restock, it.Notes).Scan(&it.ID, &it.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := recalcReturnTotals(ctx, tx, it.ReturnID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &it, nil
}

// RemoveItem soft-deletes an item and recalculates the parent totals.
func (r ReturnRepository) RemoveItem(ctx context.Context, hubID, returnID, itemID int64) error {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE return_items SET deleted_at=now()
		WHERE id=$1 AND return_id=$2 AND hub_id=$3 AND deleted_at IS NULL
	`, itemID, returnID, hubID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := recalcReturnTotals(ctx, tx, returnID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// recalcReturnTotals keeps the invariant: totals are the sum of non-deleted
// item refund amounts. Tax is derived per item from its basis-point rate.
func recalcReturnTotals(ctx context.Context, tx pgx.Tx, returnID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE returns SET
			subtotal = COALESCE((
				SELECT SUM(refund_amount) FROM return_items
				WHERE return_id=$1 AND deleted_at IS NULL), 0),
			tax_amount = COALESCE((
				SELECT SUM(refund_amount * tax_rate_bps / (10000 + tax_rate_bps)) FROM return_items
				WHERE return_id=$1 AND deleted_at IS NULL), 0),
			total_refund = COALESCE((
				SELECT SUM(refund_amount) FROM return_items
				WHERE return_id=$1 AND deleted_at IS NULL), 0),
			updated_at = now()
		WHERE id=$1
	`, returnID)
	return err
}

// ItemsWithTx reads the live items inside a caller-owned transaction.
func ItemsWithTx(ctx context.Context, tx pgx.Tx, hubID, returnID int64) ([]domain.ReturnItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, hub_id, return_id, sale_item_id, product_id, product_name, product_sku,
		       quantity, unit_price, tax_rate_bps, refund_amount, condition, restock, notes, created_at
		FROM return_items
		WHERE return_id=$1 AND hub_id=$2 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`, returnID, hubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.ReturnItem
	for rows.Next() {
		var it domain.ReturnItem
		if err := rows.Scan(&it.ID, &it.HubID, &it.ReturnID, &it.SaleItemID, &it.ProductID, &it.ProductName, &it.ProductSKU,
			&it.Quantity, &it.UnitPrice.Amount, &it.TaxRateBps, &it.RefundAmount.Amount, &it.Condition, &it.Restock, &it.Notes, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// RestockItemsWithTx restores product stock for the given items as part of a
// completing transaction and records the movement in stock_history.
func RestockItemsWithTx(ctx context.Context, tx pgx.Tx, items []domain.ReturnItem, note string) error {
	for _, it := range items {
		if !it.Restock || it.ProductID == nil {
			continue
		}
		var remaining int
		err := tx.QueryRow(ctx, `
			UPDATE products
			SET stock = stock + $1, updated_at = now()
			WHERE id=$2 AND deleted_at IS NULL AND track_stock = TRUE
			RETURNING stock
		`, it.Quantity, *it.ProductID).Scan(&remaining)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue // untracked or removed product; nothing to restore
			}
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO stock_history (product_id, change, remaining, note, type, created_at)
			VALUES ($1,$2,$3,$4,'return_restock', now())
		`, *it.ProductID, it.Quantity, remaining, note)
		if err != nil {
			return err
		}
	}
	return nil
}

type ReturnStats struct {
	TotalReturns     int
	PendingReturns   int
	CompletedReturns int
	TotalRefunded    int64
}

func (r ReturnRepository) Stats(ctx context.Context, hubID int64) (*ReturnStats, error) {
	var s ReturnStats
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status='pending'),
		       COUNT(*) FILTER (WHERE status='completed'),
		       COALESCE(SUM(total_refund) FILTER (WHERE status='completed'), 0)
		FROM returns
		WHERE hub_id=$1 AND deleted_at IS NULL
	`, hubID).Scan(&s.TotalReturns, &s.PendingReturns, &s.CompletedReturns, &s.TotalRefunded)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func argPos(n int) string {
	return "$" + strconv.Itoa(n)
}
