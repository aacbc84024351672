package models

import "divvy/internal/money"

// FriendshipStatus represents the state of a friendship edge.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship is one direction of a friendship. Each pair of friends is
// stored as two mirrored rows; Balance is the signed running total owed
// from the row owner's perspective (positive means the friend owes the
// owner). Both rows of a pair are always written in the same database
// transaction so their balances stay exact negations of each other.
type Friendship struct {
	Base
	UserID   uint             `gorm:"not null;uniqueIndex:idx_friend_pair" json:"user_id"`
	FriendID uint             `gorm:"not null;uniqueIndex:idx_friend_pair" json:"friend_id"`
	Status   FriendshipStatus `gorm:"not null;default:pending" json:"status"`
	Balance  money.Money      `gorm:"type:numeric;not null" json:"balance"`

	Friend User `gorm:"foreignKey:FriendID" json:"-"`
}
