package domain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

var ErrInsufficientCredit = errors.New("insufficient store credit")

// StoreCredit is a redeemable balance issued via a return or manually.
type StoreCredit struct {
	ID             int64
	HubID          int64
	Code           string
	CustomerID     *int64
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
	OriginalAmount Money
	CurrentAmount  Money
	ReturnID       *int64
	ExpiresAt      *time.Time
	IsActive       bool
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// GenerateCreditCode returns a code of the form SC-3F9A01BC.
func GenerateCreditCode() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return "SC-" + strings.ToUpper(hex.EncodeToString(buf))
}

// Add increases the balance, capped at the original amount.
func (c *StoreCredit) Add(amount int64) {
	c.CurrentAmount.Amount += amount
	if c.CurrentAmount.Amount > c.OriginalAmount.Amount {
		c.CurrentAmount.Amount = c.OriginalAmount.Amount
	}
}

// Deduct lowers the balance. The balance is left untouched when the
// requested amount exceeds it.
func (c *StoreCredit) Deduct(amount int64) error {
	if amount > c.CurrentAmount.Amount {
		return ErrInsufficientCredit
	}
	c.CurrentAmount.Amount -= amount
	return nil
}

func (c *StoreCredit) IsExpired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return now.After(*c.ExpiresAt)
}

// IsValid reports whether the credit can still be redeemed.
func (c *StoreCredit) IsValid(now time.Time) bool {
	return c.IsActive && !c.IsExpired(now) && c.CurrentAmount.Amount > 0
}
