package models

import "time"

// Base contains common columns for tables with a surrogate key.
// Soft deletion is modeled explicitly with Alive flags where the domain
// needs it, not with gorm.DeletedAt.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
