package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoActiveSale      = errors.New("table has no active sale")
	ErrTableNotAvailable = errors.New("table is not available")
)

// Table is a floor table with its current occupancy session. The active sale
// is owned by the sales module and referenced by id only.
type Table struct {
	ID            int64
	HubID         int64
	AreaID        *int64
	AreaName      string
	Number        string
	Name          string
	Capacity      int
	MinCapacity   int
	Status        TableStatus
	Guests        int
	Waiter        string
	OpenedAt      *time.Time
	CurrentSaleID *int64
	PosX          int
	PosY          int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

func (t *Table) IsAvailable() bool { return t.Status == TableAvailable }
func (t *Table) IsOccupied() bool  { return t.Status == TableOccupied }

// Open starts a session. Reserved tables may be opened directly.
func (t *Table) Open(guests int, waiter string, saleID *int64, now time.Time) error {
	if t.Status != TableAvailable && t.Status != TableReserved {
		return fmt.Errorf("%w: table %s is %s", ErrTableNotAvailable, t.Number, t.Status)
	}
	t.Status = TableOccupied
	t.Guests = guests
	t.Waiter = waiter
	t.OpenedAt = &now
	t.CurrentSaleID = saleID
	return nil
}

// Close ends the session. Guests, waiter, opened_at and the sale link are
// always cleared together.
func (t *Table) Close() error {
	if t.Status != TableOccupied {
		return fmt.Errorf("%w: table %s is %s, not occupied", ErrInvalidTransition, t.Number, t.Status)
	}
	t.Status = TableAvailable
	t.Guests = 0
	t.Waiter = ""
	t.OpenedAt = nil
	t.CurrentSaleID = nil
	return nil
}

// LinkSale attaches a sale to the table, occupying it if needed.
func (t *Table) LinkSale(saleID int64, now time.Time) {
	t.CurrentSaleID = &saleID
	if t.Status != TableOccupied {
		t.Status = TableOccupied
		if t.OpenedAt == nil {
			t.OpenedAt = &now
		}
	}
}

// TransferTo moves the session to target. The source must hold an active
// sale and the target must be available; otherwise nothing changes.
func (t *Table) TransferTo(target *Table, now time.Time) error {
	if t.CurrentSaleID == nil {
		return ErrNoActiveSale
	}
	if target.Status != TableAvailable {
		return fmt.Errorf("%w: target table %s is %s", ErrTableNotAvailable, target.Number, target.Status)
	}
	target.Status = TableOccupied
	target.Guests = t.Guests
	target.Waiter = t.Waiter
	target.OpenedAt = t.OpenedAt
	if target.OpenedAt == nil {
		target.OpenedAt = &now
	}
	target.CurrentSaleID = t.CurrentSaleID

	t.Status = TableAvailable
	t.Guests = 0
	t.Waiter = ""
	t.OpenedAt = nil
	t.CurrentSaleID = nil
	return nil
}

// Reserve marks an available table as reserved.
func (t *Table) Reserve() error {
	if t.Status != TableAvailable {
		return fmt.Errorf("%w: table %s is %s", ErrTableNotAvailable, t.Number, t.Status)
	}
	t.Status = TableReserved
	return nil
}

func (t *Table) CancelReservation() error {
	if t.Status != TableReserved {
		return fmt.Errorf("%w: table %s is not reserved", ErrInvalidTransition, t.Number)
	}
	t.Status = TableAvailable
	return nil
}

// Block takes a table out of service. Occupied tables must be closed first.
func (t *Table) Block() error {
	if t.Status == TableOccupied {
		return fmt.Errorf("%w: close table %s before blocking", ErrInvalidTransition, t.Number)
	}
	t.Status = TableBlocked
	return nil
}

func (t *Table) Unblock() error {
	if t.Status != TableBlocked {
		return fmt.Errorf("%w: table %s is not blocked", ErrInvalidTransition, t.Number)
	}
	t.Status = TableAvailable
	return nil
}

// ElapsedMinutes returns whole minutes since the session opened, or 0.
func (t *Table) ElapsedMinutes(now time.Time) int {
	if t.OpenedAt == nil {
		return 0
	}
	m := int(now.Sub(*t.OpenedAt).Minutes())
	if m < 0 {
		return 0
	}
	return m
}

// ElapsedDisplay formats the session duration for the floor view, "-" when
// no session is open.
func (t *Table) ElapsedDisplay(now time.Time) string {
	if t.OpenedAt == nil {
		return "-"
	}
	m := t.ElapsedMinutes(now)
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", m/60, m%60)
}
