package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/krishiyukti/krishiyukti/config"
	"github.com/krishiyukti/krishiyukti/models"
	"github.com/krishiyukti/krishiyukti/routes"
	"github.com/krishiyukti/krishiyukti/services"
	"github.com/krishiyukti/krishiyukti/utils"
)

var testDBSeq int

// newTestDB opens a fresh in-memory sqlite database shared across the
// connections of a single test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:controllers_test_%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.UserDevice{}, &models.Profile{},
		&models.Activity{}, &models.Redemption{},
	))
	return db
}

// newTestRouter wires a router over an in-memory database with deterministic
// offline services.
func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("GIN_MODE", "test")
	t.Setenv("GIN_PATH", filepath.Join(t.TempDir(), "gin.log"))
	cfg := config.Load()

	db := newTestDB(t)
	svc := routes.Services{
		Weather: services.NewWeatherService(cfg),
		Chat:    services.NewChatServiceWithProviders(services.RuleBasedProvider{}),
		Crops:   services.NewCropService(cfg),
		Schemes: services.NewSchemeService(cfg, utils.NewMemoryCache()),
		Eshram:  services.NewEshramService(cfg),
		RGI:     services.NewRGIService(cfg),
	}
	return routes.SetupRouter(db, svc), db
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decodeProfile(t *testing.T, raw json.RawMessage) models.ProfileView {
	t.Helper()
	var view models.ProfileView
	require.NoError(t, json.Unmarshal(raw, &view))
	return view
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
