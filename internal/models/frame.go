package models

import "divvy/internal/money"

// Frame is a budgeting period (e.g. one month) keyed by (group, index).
// A ghost frame exists only as carried-forward state for a period with no
// real activity yet; it is promoted to permanent once a transaction or
// edit lands in it, and deleted and rebuilt if it goes stale.
type Frame struct {
	GroupID uint        `gorm:"primaryKey;autoIncrement:false" json:"group_id"`
	Index   int         `gorm:"primaryKey;autoIncrement:false;column:frame_index" json:"index"`
	Income  money.Money `gorm:"type:numeric;not null" json:"income"`
	Ghost   bool        `gorm:"not null;default:false" json:"ghost"`

	// Rollups attached on read, never persisted.
	Balance    money.Money `gorm:"-" json:"balance"`
	Spending   money.Money `gorm:"-" json:"spending"`
	Categories []Category  `gorm:"-" json:"categories"`
}
