package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/krishiyukti/krishiyukti/models"
	"github.com/krishiyukti/krishiyukti/utils"
)

// AuthController handles account registration, login and device linking.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

func userView(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"full_name":  user.FullName,
		"created_at": user.CreatedAt,
	}
}

// Register creates a local account with bcrypt hashing and issues a JWT.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		FullName string `json:"full_name"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := utils.SanitizeText(req.FullName)

	var existing models.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, 72*time.Hour)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": userView(user)})
}

// Login verifies credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, 72*time.Hour)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": userView(user)})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, exists := ctx.Get("user_id")
	if !exists {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	utils.Success(ctx, userView(user))
}

// LinkDevice associates a device id with the authenticated account. The
// operation is idempotent: re-linking the same pair never duplicates the
// association. The device profile is created lazily, and an empty display
// name is backfilled from the account; an existing name is never overwritten.
func (a *AuthController) LinkDevice(ctx *gin.Context) {
	type request struct {
		DeviceID string `json:"device_id" binding:"required"`
	}

	userID, exists := ctx.Get("user_id")
	if !exists {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	uid, ok := userID.(uint)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.First(&user, uid).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		var link models.UserDevice
		err := tx.Where("user_id = ? AND device_id = ?", uid, req.DeviceID).First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			link = models.UserDevice{UserID: uid, DeviceID: req.DeviceID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		profile, err := lockedProfile(tx, req.DeviceID)
		if errors.Is(err, utils.ErrProfileNotFound) {
			name := user.DisplayName()
			profile = &models.Profile{DeviceID: req.DeviceID, Badges: datatypes.JSON("[]")}
			if name != "" {
				profile.UserName = &name
			}
			return tx.Create(profile).Error
		}
		if err != nil {
			return err
		}

		if profile.UserName == nil || strings.TrimSpace(*profile.UserName) == "" {
			name := user.DisplayName()
			if name != "" {
				profile.UserName = &name
				return tx.Save(profile).Error
			}
		}
		return nil
	})
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{"linked": true, "device_id": req.DeviceID})
}
