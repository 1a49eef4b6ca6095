package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCreditCode(t *testing.T) {
	pattern := regexp.MustCompile(`^SC-[0-9A-F]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code := GenerateCreditCode()
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes should not repeat")
}

func TestStoreCreditDeduct(t *testing.T) {
	t.Run("deducts within balance", func(t *testing.T) {
		c := &StoreCredit{OriginalAmount: Money{Amount: 5000}, CurrentAmount: Money{Amount: 5000}}
		require.NoError(t, c.Deduct(3000))
		assert.Equal(t, int64(2000), c.CurrentAmount.Amount)
	})

	t.Run("insufficient leaves balance untouched", func(t *testing.T) {
		c := &StoreCredit{OriginalAmount: Money{Amount: 5000}, CurrentAmount: Money{Amount: 2000}}
		err := c.Deduct(2001)
		assert.ErrorIs(t, err, ErrInsufficientCredit)
		assert.Equal(t, int64(2000), c.CurrentAmount.Amount)
	})

	t.Run("exact balance allowed", func(t *testing.T) {
		c := &StoreCredit{OriginalAmount: Money{Amount: 5000}, CurrentAmount: Money{Amount: 2000}}
		require.NoError(t, c.Deduct(2000))
		assert.Zero(t, c.CurrentAmount.Amount)
	})
}

func TestStoreCreditAdd(t *testing.T) {
	c := &StoreCredit{OriginalAmount: Money{Amount: 5000}, CurrentAmount: Money{Amount: 1000}}
	c.Add(2000)
	assert.Equal(t, int64(3000), c.CurrentAmount.Amount)

	c.Add(99999)
	assert.Equal(t, int64(5000), c.CurrentAmount.Amount, "capped at original amount")
}

func TestStoreCreditValidity(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name   string
		credit StoreCredit
		want   bool
	}{
		{"active with balance", StoreCredit{IsActive: true, CurrentAmount: Money{Amount: 100}}, true},
		{"inactive", StoreCredit{IsActive: false, CurrentAmount: Money{Amount: 100}}, false},
		{"zero balance", StoreCredit{IsActive: true}, false},
		{"expired", StoreCredit{IsActive: true, CurrentAmount: Money{Amount: 100}, ExpiresAt: &past}, false},
		{"not yet expired", StoreCredit{IsActive: true, CurrentAmount: Money{Amount: 100}, ExpiresAt: &future}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.credit.IsValid(now))
		})
	}
}
