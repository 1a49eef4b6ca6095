package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnWorkflow(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	t.Run("approve pending", func(t *testing.T) {
		r := &Return{Status: ReturnPending}
		require.NoError(t, r.Approve(7, now))
		assert.Equal(t, ReturnApproved, r.Status)
		require.NotNil(t, r.ApprovedBy)
		assert.Equal(t, int64(7), *r.ApprovedBy)
		require.NotNil(t, r.ApprovedAt)
		assert.Equal(t, now, *r.ApprovedAt)
	})

	t.Run("approve non-pending fails", func(t *testing.T) {
		for _, status := range []ReturnStatus{ReturnApproved, ReturnRejected, ReturnCompleted, ReturnCancelled} {
			r := &Return{Status: status}
			err := r.Approve(7, now)
			assert.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
			assert.Equal(t, status, r.Status, "status must not change on failure")
		}
	})

	t.Run("reject pending", func(t *testing.T) {
		r := &Return{Status: ReturnPending}
		require.NoError(t, r.Reject())
		assert.Equal(t, ReturnRejected, r.Status)
	})

	t.Run("complete approved", func(t *testing.T) {
		r := &Return{Status: ReturnApproved}
		require.NoError(t, r.Complete(now))
		assert.Equal(t, ReturnCompleted, r.Status)
		require.NotNil(t, r.CompletedAt)
	})

	t.Run("complete pending fails", func(t *testing.T) {
		r := &Return{Status: ReturnPending}
		assert.ErrorIs(t, r.Complete(now), ErrInvalidTransition)
		assert.Nil(t, r.CompletedAt)
	})

	t.Run("cancel pending and approved", func(t *testing.T) {
		for _, status := range []ReturnStatus{ReturnPending, ReturnApproved} {
			r := &Return{Status: status}
			require.NoError(t, r.Cancel())
			assert.Equal(t, ReturnCancelled, r.Status)
		}
	})

	t.Run("cancel completed fails", func(t *testing.T) {
		r := &Return{Status: ReturnCompleted}
		assert.ErrorIs(t, r.Cancel(), ErrInvalidTransition)
	})
}

func TestRecalculateTotals(t *testing.T) {
	r := &Return{}
	deleted := time.Now()
	r.RecalculateTotals([]ReturnItem{
		{RefundAmount: Money{Amount: 12100}, TaxRateBps: 2100},
		{RefundAmount: Money{Amount: 5000}, TaxRateBps: 0},
		{RefundAmount: Money{Amount: 99999}, TaxRateBps: 2100, DeletedAt: &deleted},
	})
	assert.Equal(t, int64(17100), r.Subtotal.Amount)
	assert.Equal(t, int64(17100), r.TotalRefund.Amount)
	// 12100 * 2100 / 12100 = 2100 tax embedded in the gross amount
	assert.Equal(t, int64(2100), r.TaxAmount.Amount)
}

func TestReturnNumbering(t *testing.T) {
	day := time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC)
	prefix := ReturnNumberPrefix(day)
	assert.Equal(t, "RET-20260824", prefix)

	tests := []struct {
		name string
		last string
		want string
	}{
		{"first of the day", "", "RET-20260824-0001"},
		{"increments", "RET-20260824-0007", "RET-20260824-0008"},
		{"crosses padding", "RET-20260824-0099", "RET-20260824-0100"},
		{"beyond padding", "RET-20260824-9999", "RET-20260824-10000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextReturnNumber(prefix, tt.last))
		})
	}
}

func TestReturnItemNormalize(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		it := ReturnItem{UnitPrice: Money{Amount: 2500}}
		it.Normalize()
		assert.Equal(t, 1, it.Quantity)
		assert.Equal(t, ConditionGood, it.Condition)
		assert.Equal(t, int64(2500), it.RefundAmount.Amount)
	})

	t.Run("refund derived from quantity", func(t *testing.T) {
		it := ReturnItem{Quantity: 3, UnitPrice: Money{Amount: 2500}}
		it.Normalize()
		assert.Equal(t, int64(7500), it.RefundAmount.Amount)
	})

	t.Run("explicit refund kept", func(t *testing.T) {
		it := ReturnItem{Quantity: 2, UnitPrice: Money{Amount: 2500}, RefundAmount: Money{Amount: 4000}, Condition: ConditionDamaged}
		it.Normalize()
		assert.Equal(t, int64(4000), it.RefundAmount.Amount)
		assert.Equal(t, ConditionDamaged, it.Condition)
	})
}
