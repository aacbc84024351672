package services

import (
	"time"

	"divvy/internal/models"
	"divvy/internal/money"
	"divvy/internal/pagination"

	"gorm.io/gorm"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	ChangeName(userID uint, name string) error
}

// FriendInfo is the view of a friendship returned to the row owner.
type FriendInfo struct {
	UserID  uint                    `json:"user_id"`
	Email   string                  `json:"email"`
	Name    string                  `json:"name"`
	Status  models.FriendshipStatus `json:"status"`
	Balance money.Money             `json:"balance"`
}

// FriendServicer defines the contract for friendship management.
type FriendServicer interface {
	AddFriend(userID uint, email string) (*FriendInfo, error)
	RejectFriend(userID uint, email string) error
	RemoveFriend(userID uint, email string) error
	GetFriends(userID uint) ([]FriendInfo, error)
}

// FrameServicer defines the contract for frame materialization and rollups.
type FrameServicer interface {
	// GetFrame returns the frame for the caller's default group, creating
	// a ghost from carried-forward state when no row exists.
	GetFrame(userID uint, index int) (*models.Frame, error)
	SetIncome(userID uint, index int, income money.Money) error
	Balance(gid uint, index int) (money.Money, error)
	Spending(gid uint, index int) (money.Money, error)
	Categories(gid uint, index int) ([]models.Category, error)
	// Ensure materializes the frame inside an existing transaction and
	// promotes it out of ghost state. Used when real activity lands.
	Ensure(tx *gorm.DB, gid uint, index int) error
}

// CategoryServicer defines the contract for budget category management.
type CategoryServicer interface {
	CreateCategory(userID uint, frameIndex int, name string, budget money.Money) (*models.Category, error)
	SetBudget(userID, categoryID uint, budget money.Money) error
	Rename(userID, categoryID uint, name string) error
	DeleteCategory(userID, categoryID uint) error
}

// SplitInput carries the monetary fields of a split request, still as
// wire strings so validation happens in one place.
type SplitInput struct {
	With        uint
	IPaid       bool
	OtherAmount string
	MyShare     string
	TheirShare  string
}

// CreateTransactionInput is the validated-shape input for creating a
// transaction, with money fields as wire strings.
type CreateTransactionInput struct {
	Frame       int
	Amount      string
	Description string
	CategoryID  *uint
	Date        time.Time
	Split       *SplitInput
}

// UpdateSplitInput adjusts an existing split.
type UpdateSplitInput struct {
	TransactionID uint
	SplitID       uint
	Total         string
	MyShare       string
	TheirShare    string
	IPaid         bool
}

// TransactionServicer defines the contract for ledger entries and splits.
type TransactionServicer interface {
	CreateTransaction(userID uint, input CreateTransactionInput) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
	UpdateAmount(userID, transactionID uint, amount string) error
	UpdateDate(userID, transactionID uint, date string) error
	UpdateDescription(userID, transactionID uint, description string) error
	UpdateCategory(userID, transactionID uint, categoryID *uint) error
	UpdateSplit(userID uint, input UpdateSplitInput) error
	GetFrameTransactions(userID uint, frameIndex int, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
