package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/krishiyukti/krishiyukti/services"
	"github.com/krishiyukti/krishiyukti/utils"
)

// UpdatesController groups the government data integrations: scheme listings,
// e-Shram UAN validation and RGI certificate verification.
type UpdatesController struct {
	schemes *services.SchemeService
	eshram  *services.EshramService
	rgi     *services.RGIService
}

// NewUpdatesController creates a new controller instance.
func NewUpdatesController(schemes *services.SchemeService, eshram *services.EshramService, rgi *services.RGIService) *UpdatesController {
	return &UpdatesController{schemes: schemes, eshram: eshram, rgi: rgi}
}

// Schemes lists government schemes, optionally filtered by query.
func (u *UpdatesController) Schemes(ctx *gin.Context) {
	query := strings.TrimSpace(ctx.Query("query"))
	limit := 10
	if v := strings.TrimSpace(ctx.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 20 {
			limit = n
		}
	}

	items := u.schemes.Fetch(ctx.Request.Context(), query, limit)
	utils.Success(ctx, gin.H{"schemes": items, "count": len(items)})
}

// EshramValidate checks a UAN against the e-Shram registry.
func (u *UpdatesController) EshramValidate(ctx *gin.Context) {
	type request struct {
		UAN string `json:"uan" binding:"required"`
		DOB string `json:"dob" binding:"required"` // YYYY-MM-DD
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}

	result, err := u.eshram.ValidateUAN(ctx.Request.Context(), strings.TrimSpace(req.UAN), strings.TrimSpace(req.DOB))
	if err != nil {
		respondProxyError(ctx, err)
		return
	}
	utils.Success(ctx, result)
}

// RGIBirth verifies a birth certificate registration.
func (u *UpdatesController) RGIBirth(ctx *gin.Context) {
	type request struct {
		RegNo    string               `json:"reg_no" binding:"required"`
		FullName string               `json:"full_name" binding:"required"`
		DOB      string               `json:"dob" binding:"required"` // DD-MM-YYYY
		Gender   string               `json:"gender"`
		Format   string               `json:"format"`
		User     services.ConsentUser `json:"user"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40061, "invalid request payload")
		return
	}

	result, err := u.rgi.VerifyBirth(ctx.Request.Context(), services.BirthQuery{
		RegNo:    req.RegNo,
		FullName: req.FullName,
		DOB:      req.DOB,
		Gender:   req.Gender,
		Format:   req.Format,
		User:     req.User,
	})
	if err != nil {
		respondProxyError(ctx, err)
		return
	}
	utils.Success(ctx, result)
}

// RGIDeath verifies a death certificate registration.
func (u *UpdatesController) RGIDeath(ctx *gin.Context) {
	type request struct {
		RegNo          string               `json:"reg_no" binding:"required"`
		FullName       string               `json:"full_name" binding:"required"`
		GenderDeceased string               `json:"gender_deceased" binding:"required"`
		DeceasedName   string               `json:"deceased_name" binding:"required"`
		DOD            string               `json:"dod" binding:"required"` // DD-MM-YYYY
		Relation       string               `json:"relation" binding:"required"`
		Format         string               `json:"format"`
		User           services.ConsentUser `json:"user"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40062, "invalid request payload")
		return
	}

	result, err := u.rgi.VerifyDeath(ctx.Request.Context(), services.DeathQuery{
		RegNo:          req.RegNo,
		FullName:       req.FullName,
		GenderDeceased: req.GenderDeceased,
		DeceasedName:   req.DeceasedName,
		DOD:            req.DOD,
		Relation:       req.Relation,
		Format:         req.Format,
		User:           req.User,
	})
	if err != nil {
		respondProxyError(ctx, err)
		return
	}
	utils.Success(ctx, result)
}

func respondProxyError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEshramNotConfigured):
		utils.Error(ctx, http.StatusServiceUnavailable, 50360, "upstream service not configured")
	default:
		if utils.Sugar != nil {
			utils.Sugar.Errorf("upstream proxy failed: %v", err)
		}
		utils.Error(ctx, http.StatusBadGateway, 50260, "upstream service unavailable")
	}
}
