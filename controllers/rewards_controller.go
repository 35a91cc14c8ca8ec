package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/krishiyukti/krishiyukti/models"
	"github.com/krishiyukti/krishiyukti/utils"
)

// CatalogItem is a static redeemable reward. The catalog lives in process
// memory and never changes at runtime.
type CatalogItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Cost        int    `json:"cost"`
	Description string `json:"description"`
}

var rewardsCatalog = []CatalogItem{
	{ID: "fert-5", Name: "Fertilizer Discount Coupon", Cost: 50, Description: "₹50 off on your next fertilizer purchase"},
	{ID: "soil-test", Name: "Free Soil Test", Cost: 120, Description: "One free soil health test at a partner lab"},
	{ID: "drone-demo", Name: "Drone Spraying Demo", Cost: 220, Description: "On-field drone spraying demonstration"},
	{ID: "insure-10", Name: "Crop Insurance Discount", Cost: 300, Description: "10% off crop insurance premium"},
}

// RewardsController serves the static catalog and performs redemptions
// against the points ledger.
type RewardsController struct {
	db *gorm.DB
}

// NewRewardsController creates a new controller instance.
func NewRewardsController(db *gorm.DB) *RewardsController {
	return &RewardsController{db: db}
}

// Catalog returns the fixed reward list.
func (r *RewardsController) Catalog(ctx *gin.Context) {
	utils.Success(ctx, rewardsCatalog)
}

// Redeem debits the caller-supplied cost and records the redemption plus its
// activity entry in one transaction. Cost and item name are persisted as
// given, without cross-checking the catalog.
func (r *RewardsController) Redeem(ctx *gin.Context) {
	type request struct {
		DeviceID string `json:"device_id" binding:"required"`
		ItemID   string `json:"item_id" binding:"required"`
		ItemName string `json:"item_name" binding:"required"`
		Cost     *int   `json:"cost" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40027, "invalid request payload")
		return
	}
	cost := *req.Cost
	if cost < 0 {
		utils.Error(ctx, http.StatusBadRequest, 40028, "cost must not be negative")
		return
	}

	var newPoints int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		profile, err := lockedProfile(tx, req.DeviceID)
		if err != nil {
			return err
		}

		if profile.Points < cost {
			return utils.ErrInsufficientBalance
		}

		profile.Points -= cost
		if err := tx.Save(profile).Error; err != nil {
			return err
		}

		redemption := models.Redemption{
			DeviceID: profile.DeviceID,
			ItemID:   req.ItemID,
			ItemName: req.ItemName,
			Cost:     cost,
		}
		if err := tx.Create(&redemption).Error; err != nil {
			return err
		}

		act := models.Activity{
			DeviceID: profile.DeviceID,
			Type:     models.ActivityRedeem,
			Meta:     activityMeta(map[string]interface{}{"item_id": req.ItemID, "cost": cost}),
		}
		if err := tx.Create(&act).Error; err != nil {
			return err
		}
		newPoints = profile.Points
		return nil
	})
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{"ok": true, "newPoints": newPoints})
}
