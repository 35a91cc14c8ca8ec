package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity event type tags.
const (
	ActivityAddPoints  = "add_points"
	ActivityAwardBadge = "award_badge"
	ActivityRedeem     = "redeem"
)

// Activity is an append-only audit record written alongside every ledger
// mutation. Rows are never updated or deleted, and balances are never derived
// from them.
type Activity struct {
	ID        uint           `gorm:"primaryKey" json:"-"`
	DeviceID  string         `gorm:"size:128;index;not null" json:"device_id"`
	Type      string         `gorm:"size:32;not null" json:"type"`
	Meta      datatypes.JSON `json:"meta"`
	CreatedAt time.Time      `json:"created_at"`
}
