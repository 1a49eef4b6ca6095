package domain

import "time"

// Enumerations
const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleStaff   UserRole = "staff"

	ReturnPending   ReturnStatus = "pending"
	ReturnApproved  ReturnStatus = "approved"
	ReturnRejected  ReturnStatus = "rejected"
	ReturnCompleted ReturnStatus = "completed"
	ReturnCancelled ReturnStatus = "cancelled"

	RefundOriginal    RefundMethod = "original"
	RefundCash        RefundMethod = "cash"
	RefundStoreCredit RefundMethod = "store_credit"

	ConditionNew       ItemCondition = "new"
	ConditionGood      ItemCondition = "good"
	ConditionDamaged   ItemCondition = "damaged"
	ConditionDefective ItemCondition = "defective"

	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
	TableBlocked   TableStatus = "blocked"

	LogInfo    ActivityLogType = "info"
	LogWarning ActivityLogType = "warning"
	LogError   ActivityLogType = "error"
)

type UserRole string
type ReturnStatus string
type RefundMethod string
type ItemCondition string
type TableStatus string
type ActivityLogType string

// Money is an amount in minor units (cents).
type Money struct {
	Amount   int64
	Currency string
}

type User struct {
	ID           int64
	HubID        int64
	Name         string
	Email        string
	Role         UserRole
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// ReturnsSettings is a single persisted row per hub.
type ReturnsSettings struct {
	HubID            int64
	AllowReturns     bool
	ReturnWindowDays int
	AllowStoreCredit bool
	RequireReceipt   bool
	AutoRestoreStock bool
	UpdatedAt        time.Time
}

// DefaultReturnsSettings are the values a hub starts with before any edit.
func DefaultReturnsSettings(hubID int64) ReturnsSettings {
	return ReturnsSettings{
		HubID:            hubID,
		AllowReturns:     true,
		ReturnWindowDays: 30,
		AllowStoreCredit: true,
		RequireReceipt:   true,
		AutoRestoreStock: true,
	}
}

type ReturnReason struct {
	ID                int64
	HubID             int64
	Name              string
	Description       string
	RestocksInventory bool
	RequiresNote      bool
	SortOrder         int
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// TablesSettings is a single persisted row per hub.
type TablesSettings struct {
	HubID                int64
	ShowTableTimer       bool
	ShowTableTotal       bool
	DefaultTableCapacity int
	AutoCloseOnPayment   bool
	RequireTableForOrder bool
	UpdatedAt            time.Time
}

func DefaultTablesSettings(hubID int64) TablesSettings {
	return TablesSettings{
		HubID:                hubID,
		ShowTableTimer:       true,
		ShowTableTotal:       true,
		DefaultTableCapacity: 4,
		AutoCloseOnPayment:   true,
		RequireTableForOrder: false,
	}
}

type Area struct {
	ID          int64
	HubID       int64
	Name        string
	Description string
	Color       string
	Icon        string
	SortOrder   int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time

	// Derived counts, filled by the repository.
	TableCount     int
	OccupiedCount  int
	AvailableCount int
}

type ActivityLog struct {
	ID        int64
	HubID     int64
	Title     string
	Message   string
	Actor     string
	Type      ActivityLogType
	LoggedAt  time.Time
	DeletedAt *time.Time
}
