package controllers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishiyukti/krishiyukti/models"
)

func registerUser(t *testing.T, r *gin.Engine, email, password, fullName string) string {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"email":     email,
		"password":  password,
		"full_name": fullName,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r, _ := newTestRouter(t)

	registerUser(t, r, "asha@example.com", "secret123", "Asha Devi")

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"email":    "asha@example.com",
		"password": "another456",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40901, env.Code)
}

func TestLoginAndMe(t *testing.T) {
	r, _ := newTestRouter(t)

	registerUser(t, r, "asha@example.com", "secret123", "Asha Devi")

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email":    "asha@example.com",
		"password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.Token)

	w, env = doJSON(t, r, http.MethodGet, "/api/auth/me", nil, bearer(resp.Token))
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "asha@example.com", me.Email)
	assert.Equal(t, "Asha Devi", me.FullName)
}

func TestLoginWrongPassword(t *testing.T) {
	r, _ := newTestRouter(t)

	registerUser(t, r, "asha@example.com", "secret123", "Asha Devi")

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email":    "asha@example.com",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40106, env.Code)
}

func TestMeRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLinkDeviceIsIdempotent(t *testing.T) {
	r, db := newTestRouter(t)

	token := registerUser(t, r, "asha@example.com", "secret123", "Asha Devi")

	for i := 0; i < 2; i++ {
		w, env := doJSON(t, r, http.MethodPost, "/api/auth/link-device",
			map[string]interface{}{"device_id": "dev-1"}, bearer(token))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Linked   bool   `json:"linked"`
			DeviceID string `json:"device_id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.True(t, resp.Linked)
		assert.Equal(t, "dev-1", resp.DeviceID)
	}

	var linkCount int64
	require.NoError(t, db.Model(&models.UserDevice{}).Count(&linkCount).Error)
	assert.EqualValues(t, 1, linkCount)

	// the profile was created lazily with the account name backfilled
	var profile models.Profile
	require.NoError(t, db.Where("device_id = ?", "dev-1").First(&profile).Error)
	require.NotNil(t, profile.UserName)
	assert.Equal(t, "Asha Devi", *profile.UserName)
}

func TestLinkDeviceDoesNotOverwriteName(t *testing.T) {
	r, db := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/profile/init",
		map[string]interface{}{"device_id": "dev-1", "user_name": "Meera"}, nil)
	doJSON(t, r, http.MethodPost, "/api/profile/add-points",
		map[string]interface{}{"device_id": "dev-1", "delta": 40}, nil)

	token := registerUser(t, r, "asha@example.com", "secret123", "Asha Devi")

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/link-device",
		map[string]interface{}{"device_id": "dev-1"}, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	// existing name and balance survive linking
	var profile models.Profile
	require.NoError(t, db.Where("device_id = ?", "dev-1").First(&profile).Error)
	require.NotNil(t, profile.UserName)
	assert.Equal(t, "Meera", *profile.UserName)
	assert.Equal(t, 40, profile.Points)
}

func TestLinkDeviceRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/link-device",
		map[string]interface{}{"device_id": "dev-1"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
