package controllers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishiyukti/krishiyukti/models"
)

func TestCatalogIsStatic(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/rewards/catalog", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var items []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Cost int    `json:"cost"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 4)
	assert.Equal(t, "fert-5", items[0].ID)
	assert.Equal(t, 50, items[0].Cost)
	assert.Equal(t, "insure-10", items[3].ID)
	assert.Equal(t, 300, items[3].Cost)
}

func TestRedeemLifecycle(t *testing.T) {
	r, db := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/profile/init",
		map[string]interface{}{"device_id": "dev-1", "user_name": "Asha"}, nil)
	doJSON(t, r, http.MethodPost, "/api/profile/add-points",
		map[string]interface{}{"device_id": "dev-1", "delta": 50, "reason": "signup bonus"}, nil)

	w, env := doJSON(t, r, http.MethodPost, "/api/rewards/redeem", map[string]interface{}{
		"device_id": "dev-1",
		"item_id":   "fert-5",
		"item_name": "Fertilizer Discount Coupon",
		"cost":      50,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		OK        bool `json:"ok"`
		NewPoints int  `json:"newPoints"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.OK)
	assert.Equal(t, 0, result.NewPoints)

	var redemption models.Redemption
	require.NoError(t, db.Where("device_id = ?", "dev-1").First(&redemption).Error)
	assert.Equal(t, "fert-5", redemption.ItemID)
	assert.Equal(t, 50, redemption.Cost)

	var actCount int64
	require.NoError(t, db.Model(&models.Activity{}).
		Where("device_id = ? AND type = ?", "dev-1", models.ActivityRedeem).
		Count(&actCount).Error)
	assert.EqualValues(t, 1, actCount)

	// a second redemption at the same cost must fail and leave everything untouched
	w, resp := doJSON(t, r, http.MethodPost, "/api/rewards/redeem", map[string]interface{}{
		"device_id": "dev-1",
		"item_id":   "fert-5",
		"item_name": "Fertilizer Discount Coupon",
		"cost":      50,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40031, resp.Code)

	var profile models.Profile
	require.NoError(t, db.Where("device_id = ?", "dev-1").First(&profile).Error)
	assert.Equal(t, 0, profile.Points)

	var redCount int64
	require.NoError(t, db.Model(&models.Redemption{}).Count(&redCount).Error)
	assert.EqualValues(t, 1, redCount)

	require.NoError(t, db.Model(&models.Activity{}).
		Where("type = ?", models.ActivityRedeem).Count(&actCount).Error)
	assert.EqualValues(t, 1, actCount)
}

func TestRedeemUnknownDevice(t *testing.T) {
	r, db := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/rewards/redeem", map[string]interface{}{
		"device_id": "ghost",
		"item_id":   "fert-5",
		"item_name": "Fertilizer Discount Coupon",
		"cost":      50,
	}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40420, env.Code)

	var count int64
	require.NoError(t, db.Model(&models.Redemption{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestRedeemPersistsCallerValues(t *testing.T) {
	r, db := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/profile/init",
		map[string]interface{}{"device_id": "dev-1"}, nil)
	doJSON(t, r, http.MethodPost, "/api/profile/add-points",
		map[string]interface{}{"device_id": "dev-1", "delta": 100}, nil)

	// the caller's cost and name are stored as given, not the catalog's
	w, _ := doJSON(t, r, http.MethodPost, "/api/rewards/redeem", map[string]interface{}{
		"device_id": "dev-1",
		"item_id":   "fert-5",
		"item_name": "Custom Name",
		"cost":      10,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var redemption models.Redemption
	require.NoError(t, db.Where("device_id = ?", "dev-1").First(&redemption).Error)
	assert.Equal(t, "Custom Name", redemption.ItemName)
	assert.Equal(t, 10, redemption.Cost)

	var profile models.Profile
	require.NoError(t, db.Where("device_id = ?", "dev-1").First(&profile).Error)
	assert.Equal(t, 90, profile.Points)
}
