package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// Return is a product return linked to an original sale.
type Return struct {
	ID             int64
	HubID          int64
	Number         string
	OriginalSaleID *int64
	CustomerID     *int64
	CustomerName   string
	EmployeeID     *int64
	ReasonID       *int64
	ReasonName     string
	ReasonNotes    string
	Status         ReturnStatus
	Subtotal       Money
	TaxAmount      Money
	TotalRefund    Money
	RefundMethod   RefundMethod
	Notes          string
	ApprovedBy     *int64
	ApprovedAt     *time.Time
	CompletedAt    *time.Time
	Items          []ReturnItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// ReturnItem is a single returned product line.
type ReturnItem struct {
	ID           int64
	HubID        int64
	ReturnID     int64
	SaleItemID   *int64
	ProductID    *int64
	ProductName  string
	ProductSKU   string
	Quantity     int
	UnitPrice    Money
	TaxRateBps   int
	RefundAmount Money
	Condition    ItemCondition
	Restock      bool
	Notes        string
	CreatedAt    time.Time
	DeletedAt    *time.Time
}

// Normalize fills derived item fields before first save: the refund amount
// defaults to unit price times quantity when not given explicitly.
func (it *ReturnItem) Normalize() {
	if it.Quantity < 1 {
		it.Quantity = 1
	}
	if it.Condition == "" {
		it.Condition = ConditionGood
	}
	if it.RefundAmount.Amount == 0 && it.UnitPrice.Amount > 0 {
		it.RefundAmount.Amount = it.UnitPrice.Amount * int64(it.Quantity)
	}
}

// Approve moves a pending return to approved.
func (r *Return) Approve(approvedBy int64, now time.Time) error {
	if r.Status != ReturnPending {
		return fmt.Errorf("%w: cannot approve %s return", ErrInvalidTransition, r.Status)
	}
	r.Status = ReturnApproved
	r.ApprovedBy = &approvedBy
	r.ApprovedAt = &now
	return nil
}

// Reject moves a pending return to rejected.
func (r *Return) Reject() error {
	if r.Status != ReturnPending {
		return fmt.Errorf("%w: cannot reject %s return", ErrInvalidTransition, r.Status)
	}
	r.Status = ReturnRejected
	return nil
}

// Complete finalizes an approved return.
func (r *Return) Complete(now time.Time) error {
	if r.Status != ReturnApproved {
		return fmt.Errorf("%w: cannot complete %s return", ErrInvalidTransition, r.Status)
	}
	r.Status = ReturnCompleted
	r.CompletedAt = &now
	return nil
}

// Cancel aborts a return that has not been completed or rejected yet.
func (r *Return) Cancel() error {
	if r.Status != ReturnPending && r.Status != ReturnApproved {
		return fmt.Errorf("%w: cannot cancel %s return", ErrInvalidTransition, r.Status)
	}
	r.Status = ReturnCancelled
	return nil
}

// RecalculateTotals sums non-deleted item refund amounts into the return.
func (r *Return) RecalculateTotals(items []ReturnItem) {
	var subtotal, tax int64
	for _, it := range items {
		if it.DeletedAt != nil {
			continue
		}
		subtotal += it.RefundAmount.Amount
		tax += it.RefundAmount.Amount * int64(it.TaxRateBps) / (10000 + int64(it.TaxRateBps))
	}
	r.Subtotal.Amount = subtotal
	r.TaxAmount.Amount = tax
	r.TotalRefund.Amount = subtotal
}

// ReturnNumberPrefix yields the per-day prefix, e.g. RET-20260824.
func ReturnNumberPrefix(day time.Time) string {
	return "RET-" + day.Format("20060102")
}

// NextReturnNumber produces the next zero-padded sequence number for the day.
// last is the highest existing number for the prefix, or empty for the first.
func NextReturnNumber(prefix, last string) string {
	seq := 1
	if last != "" {
		parts := strings.Split(last, "-")
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s-%04d", prefix, seq)
}
