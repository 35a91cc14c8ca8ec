package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Profile is the per-device rewards ledger row. It is keyed by the opaque
// client-generated device identifier, not by a user account, so anonymous
// devices accrue points before (or without) ever registering. The points
// column is the source of truth for the balance; activities are audit only.
type Profile struct {
	ID           uint           `gorm:"primaryKey" json:"-"`
	DeviceID     string         `gorm:"size:128;uniqueIndex;not null" json:"device_id"`
	UserName     *string        `gorm:"size:128" json:"user_name"`
	Points       int            `gorm:"default:0;not null" json:"points"`
	Badges       datatypes.JSON `json:"-"`
	StreakDays   int            `gorm:"default:0" json:"streak_days"`
	LastClaimISO *string        `gorm:"size:64" json:"last_claim_iso"`
	CreatedAt    time.Time      `json:"-"`
	UpdatedAt    time.Time      `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (p *Profile) BeforeUpdate(tx *gorm.DB) error {
	p.UpdatedAt = time.Now()
	return nil
}

// BadgeList decodes the stored badge JSON into an ordered slice.
// A missing or malformed column reads as an empty set.
func (p *Profile) BadgeList() []string {
	if len(p.Badges) == 0 {
		return []string{}
	}
	var badges []string
	if err := json.Unmarshal(p.Badges, &badges); err != nil {
		return []string{}
	}
	return badges
}

// AddBadge appends badge to the set when absent, preserving insertion order.
// Returns true when the badge was newly added.
func (p *Profile) AddBadge(badge string) bool {
	badges := p.BadgeList()
	for _, b := range badges {
		if b == badge {
			return false
		}
	}
	badges = append(badges, badge)
	raw, _ := json.Marshal(badges)
	p.Badges = raw
	return true
}

// ProfileView is the JSON shape returned by profile and rewards endpoints.
type ProfileView struct {
	DeviceID     string   `json:"device_id"`
	UserName     *string  `json:"user_name"`
	Points       int      `json:"points"`
	Badges       []string `json:"badges"`
	StreakDays   int      `json:"streak_days"`
	LastClaimISO *string  `json:"last_claim_iso"`
}

// View builds the public response shape for a profile.
func (p *Profile) View() ProfileView {
	return ProfileView{
		DeviceID:     p.DeviceID,
		UserName:     p.UserName,
		Points:       p.Points,
		Badges:       p.BadgeList(),
		StreakDays:   p.StreakDays,
		LastClaimISO: p.LastClaimISO,
	}
}
