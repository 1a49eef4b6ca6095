package handler

import (
	"encoding/json"
	"testing"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyReturnsSetting(t *testing.T) {
	t.Run("flips a boolean without a value", func(t *testing.T) {
		s := domain.ReturnsSettings{AllowReturns: true}
		require.NoError(t, applyReturnsSetting(&s, "allowReturns", nil))
		assert.False(t, s.AllowReturns)
	})

	t.Run("sets a boolean explicitly", func(t *testing.T) {
		s := domain.ReturnsSettings{RequireReceipt: true}
		require.NoError(t, applyReturnsSetting(&s, "requireReceipt", json.RawMessage(`true`)))
		assert.True(t, s.RequireReceipt)
	})

	t.Run("sets the return window", func(t *testing.T) {
		var s domain.ReturnsSettings
		require.NoError(t, applyReturnsSetting(&s, "returnWindowDays", json.RawMessage(`14`)))
		assert.Equal(t, 14, s.ReturnWindowDays)
	})

	t.Run("rejects a negative window", func(t *testing.T) {
		var s domain.ReturnsSettings
		assert.Error(t, applyReturnsSetting(&s, "returnWindowDays", json.RawMessage(`-1`)))
	})

	t.Run("window needs a value", func(t *testing.T) {
		var s domain.ReturnsSettings
		assert.Error(t, applyReturnsSetting(&s, "returnWindowDays", nil))
	})

	t.Run("unknown name", func(t *testing.T) {
		var s domain.ReturnsSettings
		assert.Error(t, applyReturnsSetting(&s, "allowRefunds", nil))
	})

	t.Run("non-boolean value for a boolean", func(t *testing.T) {
		var s domain.ReturnsSettings
		assert.Error(t, applyReturnsSetting(&s, "allowReturns", json.RawMessage(`"yes"`)))
	})
}

func TestApplyTablesSetting(t *testing.T) {
	t.Run("flips a boolean without a value", func(t *testing.T) {
		s := domain.TablesSettings{ShowTableTimer: true}
		require.NoError(t, applyTablesSetting(&s, "showTableTimer", nil))
		assert.False(t, s.ShowTableTimer)
	})

	t.Run("sets the default capacity", func(t *testing.T) {
		var s domain.TablesSettings
		require.NoError(t, applyTablesSetting(&s, "defaultTableCapacity", json.RawMessage(`6`)))
		assert.Equal(t, 6, s.DefaultTableCapacity)
	})

	t.Run("rejects zero capacity", func(t *testing.T) {
		var s domain.TablesSettings
		assert.Error(t, applyTablesSetting(&s, "defaultTableCapacity", json.RawMessage(`0`)))
	})

	t.Run("unknown name", func(t *testing.T) {
		var s domain.TablesSettings
		assert.Error(t, applyTablesSetting(&s, "tableTimer", nil))
	})
}
