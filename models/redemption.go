package models

import "time"

// Redemption records a completed catalog redemption. A row exists if and only
// if the matching debit was applied to the profile and a redeem activity was
// written; the three writes commit as one transaction.
type Redemption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DeviceID  string    `gorm:"size:128;index;not null" json:"device_id"`
	ItemID    string    `gorm:"size:64;not null" json:"item_id"`
	ItemName  string    `gorm:"size:255;not null" json:"item_name"`
	Cost      int       `gorm:"not null" json:"cost"`
	CreatedAt time.Time `json:"created_at"`
}
