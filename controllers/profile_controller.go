package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/krishiyukti/krishiyukti/config"
	"github.com/krishiyukti/krishiyukti/models"
	"github.com/krishiyukti/krishiyukti/utils"
)

// ProfileController owns the per-device points ledger. Every mutation runs as
// one transaction that locks the profile row, so concurrent requests for the
// same device serialize at the storage layer.
type ProfileController struct {
	db *gorm.DB
}

// NewProfileController creates a new controller instance.
func NewProfileController(db *gorm.DB) *ProfileController {
	return &ProfileController{db: db}
}

// lockedProfile loads the profile row for update inside tx.
func lockedProfile(tx *gorm.DB, deviceID string) (*models.Profile, error) {
	var p models.Profile
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("device_id = ?", deviceID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// activityMeta builds the JSON payload stored on an activity row.
func activityMeta(fields map[string]interface{}) datatypes.JSON {
	raw, _ := json.Marshal(fields)
	return raw
}

// isConflict reports whether err looks like lock contention, which callers
// may retry as a whole.
func isConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "lock wait timeout") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "unique constraint")
}

// respondLedgerError maps core ledger errors onto HTTP responses.
func respondLedgerError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrProfileNotFound):
		utils.Error(ctx, http.StatusNotFound, 40420, "Profile not found")
	case errors.Is(err, utils.ErrInsufficientBalance):
		utils.Error(ctx, http.StatusBadRequest, 40031, "Not enough points")
	case errors.Is(err, utils.ErrAlreadyClaimed):
		utils.Error(ctx, http.StatusBadRequest, 40032, "already claimed today")
	case errors.Is(err, utils.ErrStorageConflict) || isConflict(err):
		utils.Error(ctx, http.StatusConflict, 40920, "storage conflict, please retry")
	default:
		if utils.Sugar != nil {
			utils.Sugar.Errorf("ledger operation failed: %v", err)
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "internal server error")
	}
}

// InitProfile creates the profile lazily. Re-init never resets points or
// badges; a differing name updates only the name.
func (p *ProfileController) InitProfile(ctx *gin.Context) {
	type request struct {
		DeviceID string `json:"device_id" binding:"required"`
		UserName string `json:"user_name"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	name := utils.SanitizeText(req.UserName)

	var out models.ProfileView
	err := p.db.Transaction(func(tx *gorm.DB) error {
		profile, err := lockedProfile(tx, req.DeviceID)
		if errors.Is(err, utils.ErrProfileNotFound) {
			profile = &models.Profile{DeviceID: req.DeviceID, Points: 0, Badges: datatypes.JSON("[]")}
			if name != "" {
				profile.UserName = &name
			}
			if err := tx.Create(profile).Error; err != nil {
				return err
			}
			out = profile.View()
			return nil
		}
		if err != nil {
			return err
		}

		if name != "" && (profile.UserName == nil || *profile.UserName != name) {
			profile.UserName = &name
			if err := tx.Save(profile).Error; err != nil {
				return err
			}
		}
		out = profile.View()
		return nil
	})
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Success(ctx, out)
}

// GetProfile returns the profile for a device id.
func (p *ProfileController) GetProfile(ctx *gin.Context) {
	deviceID := strings.TrimSpace(ctx.Query("deviceId"))
	if deviceID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "missing deviceId")
		return
	}

	var profile models.Profile
	if err := p.db.Where("device_id = ?", deviceID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondLedgerError(ctx, utils.ErrProfileNotFound)
			return
		}
		respondLedgerError(ctx, err)
		return
	}

	utils.Success(ctx, profile.View())
}

// SetName overwrites the display name unconditionally.
func (p *ProfileController) SetName(ctx *gin.Context) {
	type request struct {
		DeviceID string `json:"device_id" binding:"required"`
		UserName string `json:"user_name" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}
	name := utils.SanitizeText(req.UserName)

	var out models.ProfileView
	err := p.db.Transaction(func(tx *gorm.DB) error {
		profile, err := lockedProfile(tx, req.DeviceID)
		if err != nil {
			return err
		}
		profile.UserName = &name
		if err := tx.Save(profile).Error; err != nil {
			return err
		}
		out = profile.View()
		return nil
	})
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Success(ctx, out)
}

// AddPoints applies a signed delta to the balance and records the activity in
// the same transaction. The delta passes through as-is; there is deliberately
// no floor at zero.
func (p *ProfileController) AddPoints(ctx *gin.Context) {
	type request struct {
		DeviceID string  `json:"device_id" binding:"required"`
		Delta    *int    `json:"delta" binding:"required"`
		Reason   *string `json:"reason"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}

	var out models.ProfileView
	err := p.db.Transaction(func(tx *gorm.DB) error {
		profile, err := lockedProfile(tx, req.DeviceID)
		if err != nil {
			return err
		}

		profile.Points += *req.Delta
		if err := tx.Save(profile).Error; err != nil {
			return err
		}

		act := models.Activity{
			DeviceID: profile.DeviceID,
			Type:     models.ActivityAddPoints,
			Meta:     activityMeta(map[string]interface{}{"delta": *req.Delta, "reason": req.Reason}),
		}
		if err := tx.Create(&act).Error; err != nil {
			return err
		}
		out = profile.View()
		return nil
	})
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Success(ctx, out)
}

// AwardBadge adds a badge with set semantics; the activity row is written
// whether or not the badge was new.
func (p *ProfileController) AwardBadge(ctx *gin.Context) {
	type request struct {
		DeviceID string `json:"device_id" binding:"required"`
		Badge    string `json:"badge" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	var out models.ProfileView
	err := p.db.Transaction(func(tx *gorm.DB) error {
		profile, err := lockedProfile(tx, req.DeviceID)
		if err != nil {
			return err
		}

		profile.AddBadge(req.Badge)
		if err := tx.Save(profile).Error; err != nil {
			return err
		}

		act := models.Activity{
			DeviceID: profile.DeviceID,
			Type:     models.ActivityAwardBadge,
			Meta:     activityMeta(map[string]interface{}{"badge": req.Badge}),
		}
		if err := tx.Create(&act).Error; err != nil {
			return err
		}
		out = profile.View()
		return nil
	})
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Success(ctx, out)
}

// ClaimDaily awards the daily check-in points once per UTC day and advances
// the streak: consecutive days extend it, a gap resets it to one.
func (p *ProfileController) ClaimDaily(ctx *gin.Context) {
	type request struct {
		DeviceID string `json:"device_id" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40025, "invalid request payload")
		return
	}

	reward := config.Get().DailyClaimPoints
	today := time.Now().UTC().Format("2006-01-02")

	var out models.ProfileView
	err := p.db.Transaction(func(tx *gorm.DB) error {
		profile, err := lockedProfile(tx, req.DeviceID)
		if err != nil {
			return err
		}

		if profile.LastClaimISO != nil && *profile.LastClaimISO == today {
			return utils.ErrAlreadyClaimed
		}

		streak := 1
		if profile.LastClaimISO != nil {
			if last, err := time.Parse("2006-01-02", *profile.LastClaimISO); err == nil {
				if last.AddDate(0, 0, 1).Format("2006-01-02") == today {
					streak = profile.StreakDays + 1
				}
			}
		}

		profile.Points += reward
		profile.StreakDays = streak
		profile.LastClaimISO = &today
		if err := tx.Save(profile).Error; err != nil {
			return err
		}

		act := models.Activity{
			DeviceID: profile.DeviceID,
			Type:     models.ActivityAddPoints,
			Meta:     activityMeta(map[string]interface{}{"delta": reward, "reason": "daily check-in"}),
		}
		if err := tx.Create(&act).Error; err != nil {
			return err
		}
		out = profile.View()
		return nil
	})
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{"points_awarded": reward, "profile": out})
}

// ListActivity returns recent audit entries for a device, newest first.
func (p *ProfileController) ListActivity(ctx *gin.Context) {
	deviceID := strings.TrimSpace(ctx.Query("deviceId"))
	if deviceID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40026, "missing deviceId")
		return
	}

	var count int64
	if err := p.db.Model(&models.Profile{}).Where("device_id = ?", deviceID).Count(&count).Error; err != nil {
		respondLedgerError(ctx, err)
		return
	}
	if count == 0 {
		respondLedgerError(ctx, utils.ErrProfileNotFound)
		return
	}

	var activities []models.Activity
	if err := p.db.Where("device_id = ?", deviceID).
		Order("id DESC").Limit(50).Find(&activities).Error; err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Success(ctx, activities)
}
