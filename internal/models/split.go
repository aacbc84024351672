package models

import "divvy/internal/money"

// Split links the two transactions of a shared expense. The payer is the
// user who actually paid the combined total; the counterparty owes the
// payer their side's amount until settled.
type Split struct {
	Base
	PayerID uint `gorm:"not null" json:"payer_id"`
	Settled bool `gorm:"not null;default:false" json:"settled"`

	Shares []TransactionSplit `gorm:"foreignKey:SplitID" json:"shares,omitempty"`
}

// TransactionSplit records one side of a split: which transaction belongs
// to which user, and that side's share weight. The share weights of the
// two rows determine how the combined total distributes across the pair.
type TransactionSplit struct {
	Base
	SplitID       uint        `gorm:"not null;index" json:"split_id"`
	TransactionID uint        `gorm:"not null;index" json:"transaction_id"`
	UserID        uint        `gorm:"not null" json:"user_id"`
	Share         money.Money `gorm:"type:numeric;not null" json:"share"`
}
