package ports

import (
	"context"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/ERPlora/module-returns/internal/repository"
	"github.com/jackc/pgx/v5"
)

// HealthChecker is used to probe dependencies.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ReturnStore is the slice of the return repository the workflow layer and
// the assistant need.
type ReturnStore interface {
	List(ctx context.Context, hubID int64, f repository.ReturnFilter) ([]domain.Return, error)
	Get(ctx context.Context, hubID, id int64) (*domain.Return, error)
	Create(ctx context.Context, hubID int64, in repository.CreateReturnInput) (*domain.Return, error)
	AddItem(ctx context.Context, hubID int64, it domain.ReturnItem) (*domain.ReturnItem, error)
	Transition(ctx context.Context, hubID, id int64, fn func(*domain.Return) error, after func(context.Context, pgx.Tx, *domain.Return) error) (*domain.Return, error)
}

type ReasonStore interface {
	List(ctx context.Context, hubID int64, activeOnly bool) ([]domain.ReturnReason, error)
	Get(ctx context.Context, hubID, id int64) (*domain.ReturnReason, error)
	Create(ctx context.Context, re domain.ReturnReason) (*domain.ReturnReason, error)
}

type ReturnsSettingsStore interface {
	Get(ctx context.Context, hubID int64) (*domain.ReturnsSettings, error)
}

type CreditStore interface {
	List(ctx context.Context, hubID int64, f repository.CreditFilter) ([]domain.StoreCredit, error)
}

type ActivityLogStore interface {
	Create(ctx context.Context, hubID int64, in repository.CreateActivityLogInput) (int64, error)
}
