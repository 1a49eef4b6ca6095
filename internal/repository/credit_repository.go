package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ERPlora/module-returns/internal/db"
	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreditRepository struct {
	DB *db.Postgres
}

const creditColumns = `
	id, hub_id, code, customer_id, customer_name, customer_email, customer_phone,
	original_amount, current_amount, return_id, expires_at, is_active, notes, created_at, updated_at
`

func scanCredit(row pgx.Row) (*domain.StoreCredit, error) {
	var c domain.StoreCredit
	var expiresAt pgtype.Timestamptz
	if err := row.Scan(
		&c.ID, &c.HubID, &c.Code, &c.CustomerID, &c.CustomerName, &c.CustomerEmail, &c.CustomerPhone,
		&c.OriginalAmount.Amount, &c.CurrentAmount.Amount, &c.ReturnID, &expiresAt, &c.IsActive, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if expiresAt.Valid {
		c.ExpiresAt = &expiresAt.Time
	}
	return &c, nil
}

type CreditFilter struct {
	Query      string
	ActiveOnly bool
	CustomerID *int64
	Limit      int
}

func (r CreditRepository) List(ctx context.Context, hubID int64, f CreditFilter) ([]domain.StoreCredit, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	query := `
		SELECT ` + creditColumns + `
		FROM store_credits
		WHERE hub_id=$1 AND deleted_at IS NULL
	`
	args := []any{hubID}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		p := argPos(len(args))
		query += ` AND (code ILIKE ` + p + ` OR customer_name ILIKE ` + p + `)`
	}
	if f.ActiveOnly {
		query += ` AND is_active = TRUE AND current_amount > 0`
	}
	if f.CustomerID != nil {
		args = append(args, *f.CustomerID)
		query += ` AND customer_id=` + argPos(len(args))
	}
	args = append(args, f.Limit)
	query += ` ORDER BY created_at DESC LIMIT ` + argPos(len(args))

	rows, err := r.DB.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.StoreCredit
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

func (r CreditRepository) Get(ctx context.Context, hubID, id int64) (*domain.StoreCredit, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+creditColumns+`
		FROM store_credits
		WHERE id=$1 AND hub_id=$2 AND deleted_at IS NULL
	`, id, hubID)
	return scanCredit(row)
}

func (r CreditRepository) GetByCode(ctx context.Context, hubID int64, code string) (*domain.StoreCredit, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+creditColumns+`
		FROM store_credits
		WHERE code=$1 AND hub_id=$2 AND deleted_at IS NULL
	`, code, hubID)
	return scanCredit(row)
}

// Create inserts a credit, retrying on the rare code collision.
func (r CreditRepository) Create(ctx context.Context, c domain.StoreCredit) (*domain.StoreCredit, error) {
	for attempt := 0; attempt < 3; attempt++ {
		if c.Code == "" || attempt > 0 {
			c.Code = domain.GenerateCreditCode()
		}
		row := r.DB.Pool.QueryRow(ctx, `
			INSERT INTO store_credits (hub_id, code, customer_id, customer_name, customer_email, customer_phone,
			                           original_amount, current_amount, return_id, expires_at, is_active, notes, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now(), now())
			RETURNING `+creditColumns+`
		`, c.HubID, c.Code, c.CustomerID, c.CustomerName, c.CustomerEmail, c.CustomerPhone,
			c.OriginalAmount.Amount, c.CurrentAmount.Amount, c.ReturnID, c.ExpiresAt, c.IsActive, c.Notes)
		saved, err := scanCredit(row)
		if err != nil {
			if IsDuplicate(err) {
				continue
			}
			return nil, err
		}
		return saved, nil
	}
	return nil, errors.New("could not allocate a unique credit code")
}

// CreateWithTx inserts a credit inside a caller-owned transaction, used when
// completing a return.
func CreateWithTx(ctx context.Context, tx pgx.Tx, c domain.StoreCredit) (*domain.StoreCredit, error) {
	if c.Code == "" {
		c.Code = domain.GenerateCreditCode()
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO store_credits (hub_id, code, customer_id, customer_name, customer_email, customer_phone,
		                           original_amount, current_amount, return_id, expires_at, is_active, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now(), now())
		RETURNING `+creditColumns+`
	`, c.HubID, c.Code, c.CustomerID, c.CustomerName, c.CustomerEmail, c.CustomerPhone,
		c.OriginalAmount.Amount, c.CurrentAmount.Amount, c.ReturnID, c.ExpiresAt, c.IsActive, c.Notes)
	return scanCredit(row)
}

// Adjust applies fn to the credit under a row lock and persists the balance.
func (r CreditRepository) Adjust(ctx context.Context, hubID, id int64, fn func(*domain.StoreCredit) error) (*domain.StoreCredit, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+creditColumns+`
		FROM store_credits
		WHERE id=$1 AND hub_id=$2 AND deleted_at IS NULL
		FOR UPDATE
	`, id, hubID)
	c, err := scanCredit(row)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE store_credits
		SET current_amount=$1, is_active=$2, updated_at=now()
		WHERE id=$3
	`, c.CurrentAmount.Amount, c.IsActive, c.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// ExpireStale deactivates credits past their expiry. Called lazily from the
// list endpoint rather than by a background job.
func (r CreditRepository) ExpireStale(ctx context.Context, hubID int64, now time.Time) error {
	_, err := r.DB.Pool.Exec(ctx, `
		UPDATE store_credits
		SET is_active=FALSE, updated_at=now()
		WHERE hub_id=$1 AND deleted_at IS NULL AND is_active=TRUE
		  AND expires_at IS NOT NULL AND expires_at < $2
	`, hubID, now)
	return err
}
