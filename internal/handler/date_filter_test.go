package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateQuery(t *testing.T) {
	t.Run("missing key returns nil", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/returns", nil)
		got, err := parseDateQuery(r, "startDate")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("valid date", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/returns?startDate=2026-08-24", nil)
		got, err := parseDateQuery(r, "startDate")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), *got)
	})

	t.Run("invalid date", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/returns?startDate=24-08-2026", nil)
		_, err := parseDateQuery(r, "startDate")
		assert.Error(t, err)
	})
}
