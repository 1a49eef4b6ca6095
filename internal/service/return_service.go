package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/ERPlora/module-returns/internal/ports"
	"github.com/ERPlora/module-returns/internal/repository"
	"github.com/jackc/pgx/v5"
)

var (
	ErrReturnsDisabled    = errors.New("returns are disabled for this hub")
	ErrReturnWindowClosed = errors.New("return window has closed")
	ErrReceiptRequired    = errors.New("original sale reference is required")
	ErrNoteRequired       = errors.New("this reason requires a note")
)

// ReturnService drives the return workflow. Status guards live on the domain
// model; this layer adds settings checks and the completion side effects
// (store credit, restocking) that must commit atomically with the status
// change.
type ReturnService struct {
	Returns  ports.ReturnStore
	Reasons  ports.ReasonStore
	Settings ports.ReturnsSettingsStore
	Logs     ports.ActivityLogStore
	Logger   *slog.Logger
}

type CreateReturnParams struct {
	OriginalSaleID *int64
	SaleDate       *time.Time
	CustomerID     *int64
	CustomerName   string
	EmployeeID     *int64
	ReasonID       *int64
	ReasonNotes    string
	RefundMethod   domain.RefundMethod
	Notes          string
	Items          []domain.ReturnItem
}

func (s ReturnService) Create(ctx context.Context, hubID int64, actor string, p CreateReturnParams) (*domain.Return, error) {
	settings, err := s.Settings.Get(ctx, hubID)
	if err != nil {
		return nil, err
	}
	if !settings.AllowReturns {
		return nil, ErrReturnsDisabled
	}
	if settings.RequireReceipt && p.OriginalSaleID == nil {
		return nil, ErrReceiptRequired
	}
	if p.SaleDate != nil && settings.ReturnWindowDays > 0 {
		deadline := p.SaleDate.AddDate(0, 0, settings.ReturnWindowDays)
		if time.Now().After(deadline) {
			return nil, ErrReturnWindowClosed
		}
	}
	if p.ReasonID != nil {
		reason, err := s.Reasons.Get(ctx, hubID, *p.ReasonID)
		if err != nil {
			return nil, err
		}
		if reason.RequiresNote && p.ReasonNotes == "" {
			return nil, ErrNoteRequired
		}
	}
	if p.RefundMethod == "" {
		p.RefundMethod = domain.RefundOriginal
	}

	ret, err := s.Returns.Create(ctx, hubID, repository.CreateReturnInput{
		OriginalSaleID: p.OriginalSaleID,
		CustomerID:     p.CustomerID,
		CustomerName:   p.CustomerName,
		EmployeeID:     p.EmployeeID,
		ReasonID:       p.ReasonID,
		ReasonNotes:    p.ReasonNotes,
		RefundMethod:   p.RefundMethod,
		Notes:          p.Notes,
	})
	if err != nil {
		return nil, err
	}

	for _, it := range p.Items {
		it.ReturnID = ret.ID
		it.HubID = hubID
		it.Normalize()
		if _, err := s.Returns.AddItem(ctx, hubID, it); err != nil {
			return nil, err
		}
	}
	if len(p.Items) > 0 {
		if ret, err = s.Returns.Get(ctx, hubID, ret.ID); err != nil {
			return nil, err
		}
	}

	s.logActivity(ctx, hubID, actor, "Return created", fmt.Sprintf("%s created for %s", ret.Number, ret.CustomerName))
	return ret, nil
}

func (s ReturnService) Approve(ctx context.Context, hubID, id, userID int64, actor string) (*domain.Return, error) {
	ret, err := s.Returns.Transition(ctx, hubID, id, func(r *domain.Return) error {
		return r.Approve(userID, time.Now())
	}, nil)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, hubID, actor, "Return approved", ret.Number+" approved")
	return ret, nil
}

func (s ReturnService) Reject(ctx context.Context, hubID, id int64, actor string) (*domain.Return, error) {
	ret, err := s.Returns.Transition(ctx, hubID, id, func(r *domain.Return) error {
		return r.Reject()
	}, nil)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, hubID, actor, "Return rejected", ret.Number+" rejected")
	return ret, nil
}

func (s ReturnService) Cancel(ctx context.Context, hubID, id int64, actor string) (*domain.Return, error) {
	ret, err := s.Returns.Transition(ctx, hubID, id, func(r *domain.Return) error {
		return r.Cancel()
	}, nil)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, hubID, actor, "Return cancelled", ret.Number+" cancelled")
	return ret, nil
}

// completionPlan captures the side effects completing a return triggers.
type completionPlan struct {
	IssueCredit bool
	Restock     bool
}

// planCompletion decides whether completing r issues a store credit and
// whether stock comes back. Restocking needs both the hub setting and a
// reason that restocks; items opting out are skipped by the repository.
func planCompletion(settings *domain.ReturnsSettings, reason *domain.ReturnReason, r *domain.Return) completionPlan {
	plan := completionPlan{
		IssueCredit: r.RefundMethod == domain.RefundStoreCredit && settings.AllowStoreCredit && r.TotalRefund.Amount > 0,
		Restock:     settings.AutoRestoreStock,
	}
	if reason != nil && !reason.RestocksInventory {
		plan.Restock = false
	}
	return plan
}

// Complete finalizes an approved return. In the same transaction it issues a
// store credit when the refund method asks for one, and restores stock when
// auto restore is enabled and the return's reason restocks.
func (s ReturnService) Complete(ctx context.Context, hubID, id int64, actor string) (*domain.Return, *domain.StoreCredit, error) {
	settings, err := s.Settings.Get(ctx, hubID)
	if err != nil {
		return nil, nil, err
	}
	current, err := s.Returns.Get(ctx, hubID, id)
	if err != nil {
		return nil, nil, err
	}
	var reason *domain.ReturnReason
	if current.ReasonID != nil {
		reason, err = s.Reasons.Get(ctx, hubID, *current.ReasonID)
		if err != nil {
			// A reason deleted mid-flight falls back to the hub setting.
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, nil, err
			}
			reason = nil
		}
	}

	var credit *domain.StoreCredit
	ret, err := s.Returns.Transition(ctx, hubID, id, func(r *domain.Return) error {
		return r.Complete(time.Now())
	}, func(ctx context.Context, tx pgx.Tx, r *domain.Return) error {
		plan := planCompletion(settings, reason, r)

		if plan.IssueCredit {
			c, err := repository.CreateWithTx(ctx, tx, domain.StoreCredit{
				HubID:          hubID,
				CustomerID:     r.CustomerID,
				CustomerName:   r.CustomerName,
				OriginalAmount: r.TotalRefund,
				CurrentAmount:  r.TotalRefund,
				ReturnID:       &r.ID,
				IsActive:       true,
				Notes:          "Created from return " + r.Number,
			})
			if err != nil {
				return err
			}
			credit = c
		}

		if plan.Restock {
			items, err := repository.ItemsWithTx(ctx, tx, hubID, r.ID)
			if err != nil {
				return err
			}
			if err := repository.RestockItemsWithTx(ctx, tx, items, "Return "+r.Number); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	msg := ret.Number + " completed"
	if credit != nil {
		msg += ", credit " + credit.Code + " issued"
	}
	s.logActivity(ctx, hubID, actor, "Return completed", msg)
	return ret, credit, nil
}

// logActivity is best effort; a failed log entry never fails the request.
func (s ReturnService) logActivity(ctx context.Context, hubID int64, actor, title, message string) {
	if _, err := s.Logs.Create(ctx, hubID, repository.CreateActivityLogInput{
		Title:   title,
		Message: message,
		Actor:   actor,
	}); err != nil && s.Logger != nil {
		s.Logger.Warn("activity log write failed", "error", err)
	}
}
