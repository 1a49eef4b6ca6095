package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableOpenClose(t *testing.T) {
	now := time.Date(2026, 8, 24, 19, 0, 0, 0, time.UTC)
	saleID := int64(42)

	t.Run("open available table", func(t *testing.T) {
		tbl := &Table{Number: "T1", Status: TableAvailable}
		require.NoError(t, tbl.Open(4, "maria", &saleID, now))
		assert.Equal(t, TableOccupied, tbl.Status)
		assert.Equal(t, 4, tbl.Guests)
		assert.Equal(t, "maria", tbl.Waiter)
		require.NotNil(t, tbl.OpenedAt)
		assert.Equal(t, now, *tbl.OpenedAt)
		assert.Equal(t, &saleID, tbl.CurrentSaleID)
	})

	t.Run("open reserved table", func(t *testing.T) {
		tbl := &Table{Number: "T2", Status: TableReserved}
		require.NoError(t, tbl.Open(2, "luis", nil, now))
		assert.Equal(t, TableOccupied, tbl.Status)
	})

	t.Run("open occupied or blocked fails", func(t *testing.T) {
		for _, status := range []TableStatus{TableOccupied, TableBlocked} {
			tbl := &Table{Number: "T3", Status: status}
			assert.ErrorIs(t, tbl.Open(2, "luis", nil, now), ErrTableNotAvailable, "status %s", status)
		}
	})

	t.Run("close clears the whole session", func(t *testing.T) {
		tbl := &Table{Number: "T4", Status: TableOccupied, Guests: 4, Waiter: "maria", OpenedAt: &now, CurrentSaleID: &saleID}
		require.NoError(t, tbl.Close())
		assert.Equal(t, TableAvailable, tbl.Status)
		assert.Zero(t, tbl.Guests)
		assert.Empty(t, tbl.Waiter)
		assert.Nil(t, tbl.OpenedAt)
		assert.Nil(t, tbl.CurrentSaleID)
	})

	t.Run("close non-occupied fails", func(t *testing.T) {
		for _, status := range []TableStatus{TableAvailable, TableReserved, TableBlocked} {
			tbl := &Table{Number: "T5", Status: status}
			assert.ErrorIs(t, tbl.Close(), ErrInvalidTransition, "status %s", status)
		}
	})
}

func TestTableTransfer(t *testing.T) {
	now := time.Date(2026, 8, 24, 19, 0, 0, 0, time.UTC)
	opened := now.Add(-30 * time.Minute)
	saleID := int64(42)

	t.Run("moves session to available target", func(t *testing.T) {
		source := &Table{Number: "T1", Status: TableOccupied, Guests: 4, Waiter: "maria", OpenedAt: &opened, CurrentSaleID: &saleID}
		target := &Table{Number: "T2", Status: TableAvailable}
		require.NoError(t, source.TransferTo(target, now))

		assert.Equal(t, TableOccupied, target.Status)
		assert.Equal(t, 4, target.Guests)
		assert.Equal(t, "maria", target.Waiter)
		assert.Equal(t, &opened, target.OpenedAt)
		assert.Equal(t, &saleID, target.CurrentSaleID)

		assert.Equal(t, TableAvailable, source.Status)
		assert.Zero(t, source.Guests)
		assert.Nil(t, source.CurrentSaleID)
	})

	t.Run("no active sale", func(t *testing.T) {
		source := &Table{Number: "T1", Status: TableOccupied}
		target := &Table{Number: "T2", Status: TableAvailable}
		assert.ErrorIs(t, source.TransferTo(target, now), ErrNoActiveSale)
		assert.Equal(t, TableAvailable, target.Status)
	})

	t.Run("target not available leaves both unchanged", func(t *testing.T) {
		source := &Table{Number: "T1", Status: TableOccupied, Guests: 4, CurrentSaleID: &saleID}
		target := &Table{Number: "T2", Status: TableOccupied, Guests: 2}
		assert.ErrorIs(t, source.TransferTo(target, now), ErrTableNotAvailable)
		assert.Equal(t, 4, source.Guests)
		assert.Equal(t, 2, target.Guests)
		assert.Equal(t, &saleID, source.CurrentSaleID)
	})
}

func TestTableReserveBlock(t *testing.T) {
	t.Run("reserve available", func(t *testing.T) {
		tbl := &Table{Number: "T1", Status: TableAvailable}
		require.NoError(t, tbl.Reserve())
		assert.Equal(t, TableReserved, tbl.Status)
		require.NoError(t, tbl.CancelReservation())
		assert.Equal(t, TableAvailable, tbl.Status)
	})

	t.Run("reserve occupied fails", func(t *testing.T) {
		tbl := &Table{Number: "T1", Status: TableOccupied}
		assert.ErrorIs(t, tbl.Reserve(), ErrTableNotAvailable)
	})

	t.Run("block and unblock", func(t *testing.T) {
		tbl := &Table{Number: "T1", Status: TableAvailable}
		require.NoError(t, tbl.Block())
		assert.Equal(t, TableBlocked, tbl.Status)
		require.NoError(t, tbl.Unblock())
		assert.Equal(t, TableAvailable, tbl.Status)
	})

	t.Run("block occupied fails", func(t *testing.T) {
		tbl := &Table{Number: "T1", Status: TableOccupied}
		assert.ErrorIs(t, tbl.Block(), ErrInvalidTransition)
	})

	t.Run("unblock non-blocked fails", func(t *testing.T) {
		tbl := &Table{Number: "T1", Status: TableAvailable}
		assert.ErrorIs(t, tbl.Unblock(), ErrInvalidTransition)
	})
}

func TestTableElapsed(t *testing.T) {
	now := time.Date(2026, 8, 24, 20, 0, 0, 0, time.UTC)

	t.Run("closed table", func(t *testing.T) {
		tbl := &Table{}
		assert.Zero(t, tbl.ElapsedMinutes(now))
		assert.Equal(t, "-", tbl.ElapsedDisplay(now))
	})

	t.Run("under an hour", func(t *testing.T) {
		opened := now.Add(-45 * time.Minute)
		tbl := &Table{OpenedAt: &opened}
		assert.Equal(t, 45, tbl.ElapsedMinutes(now))
		assert.Equal(t, "45m", tbl.ElapsedDisplay(now))
	})

	t.Run("over an hour", func(t *testing.T) {
		opened := now.Add(-125 * time.Minute)
		tbl := &Table{OpenedAt: &opened}
		assert.Equal(t, "2h 5m", tbl.ElapsedDisplay(now))
	})
}
