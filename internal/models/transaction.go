package models

import (
	"time"

	"divvy/internal/money"
)

// Transaction is a single ledger entry within a group's frame. Amounts are
// always non-negative; income lives on the frame, not here. Deleted entries
// stay in the table with Alive=false so historical balances remain stable.
type Transaction struct {
	Base
	GroupID     uint        `gorm:"not null;index:idx_tx_group_frame" json:"group_id"`
	FrameIndex  int         `gorm:"not null;index:idx_tx_group_frame" json:"frame"`
	Amount      money.Money `gorm:"type:numeric;not null" json:"amount"`
	Description string      `json:"description"`
	CategoryID  *uint       `json:"category_id,omitempty"`
	Date        time.Time   `gorm:"not null" json:"date"`
	Alive       bool        `gorm:"not null;default:true" json:"alive"`
	SplitID     *uint       `json:"split_id,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Split    *Split    `gorm:"foreignKey:SplitID" json:"split,omitempty"`
}

// Shared reports whether the transaction is one side of a split expense.
func (t *Transaction) Shared() bool {
	return t.SplitID != nil
}
