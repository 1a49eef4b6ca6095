package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreditFilter(t *testing.T) {
	t.Run("active accepts 1", func(t *testing.T) {
		f, err := parseCreditFilter(httptest.NewRequest("GET", "/credits?active=1", nil))
		require.NoError(t, err)
		assert.True(t, f.ActiveOnly)
	})

	t.Run("active accepts true", func(t *testing.T) {
		f, err := parseCreditFilter(httptest.NewRequest("GET", "/credits?active=true", nil))
		require.NoError(t, err)
		assert.True(t, f.ActiveOnly)
	})

	t.Run("absent or other values list everything", func(t *testing.T) {
		for _, target := range []string{"/credits", "/credits?active=0", "/credits?active=no"} {
			f, err := parseCreditFilter(httptest.NewRequest("GET", target, nil))
			require.NoError(t, err)
			assert.False(t, f.ActiveOnly, target)
		}
	})

	t.Run("customer id", func(t *testing.T) {
		f, err := parseCreditFilter(httptest.NewRequest("GET", "/credits?customerId=42", nil))
		require.NoError(t, err)
		require.NotNil(t, f.CustomerID)
		assert.Equal(t, int64(42), *f.CustomerID)
	})

	t.Run("bad customer id", func(t *testing.T) {
		_, err := parseCreditFilter(httptest.NewRequest("GET", "/credits?customerId=abc", nil))
		assert.Error(t, err)
	})
}
