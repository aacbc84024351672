package models

import "divvy/internal/money"

// Category is a per-frame budget bucket. Categories are copied forward
// from frame to frame, so the same name usually appears once per frame
// index. Ghost mirrors the owning frame's ghost flag.
type Category struct {
	Base
	GroupID    uint        `gorm:"not null;index:idx_cat_group_frame" json:"group_id"`
	FrameIndex int         `gorm:"not null;index:idx_cat_group_frame" json:"frame"`
	Name       string      `gorm:"not null" json:"name"`
	Ordering   int         `gorm:"not null;default:0" json:"ordering"`
	Budget     money.Money `gorm:"type:numeric;not null" json:"budget"`
	Ghost      bool        `gorm:"not null;default:false" json:"ghost"`
	Alive      bool        `gorm:"not null;default:true" json:"alive"`

	// Balance = budget minus this category's spending, attached on read.
	Balance money.Money `gorm:"-" json:"balance"`
}
