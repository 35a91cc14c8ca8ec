package models

import (
	"time"

	"gorm.io/gorm"
)

// UserDevice links an account to a device profile. The pair is unique, but a
// device may be linked to several accounts when links were created
// independently; nothing enforces one-account-per-device exclusivity.
// There is no foreign key to Profile: the join is by device_id value and the
// link-device transaction keeps the two tables consistent.
type UserDevice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;uniqueIndex:uq_user_device;not null" json:"user_id"`
	DeviceID  string    `gorm:"size:128;index;uniqueIndex:uq_user_device;not null" json:"device_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
// CreatedAt is never overwritten once set.
func (d *UserDevice) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	return nil
}
