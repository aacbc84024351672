package models

// Group scopes frames, categories and transactions. Every user gets a
// personal group at registration; it is their default group for all
// bookkeeping operations.
type Group struct {
	Base
	Name string `gorm:"not null" json:"name"`
}

// User represents an account holder.
type User struct {
	Base
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Name     string `json:"name"`
	GroupID  uint   `gorm:"not null" json:"group_id"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Group Group `gorm:"foreignKey:GroupID" json:"-"`
}
