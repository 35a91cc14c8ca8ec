package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krishiyukti/krishiyukti/services"
	"github.com/krishiyukti/krishiyukti/utils"
)

// AIController serves the advisory chat and crop suggestion endpoints. Both
// degrade to rule-based answers, so neither ever returns an upstream error.
type AIController struct {
	chat  *services.ChatService
	crops *services.CropService
}

// NewAIController creates a new controller instance.
func NewAIController(chat *services.ChatService, crops *services.CropService) *AIController {
	return &AIController{chat: chat, crops: crops}
}

// Chat answers a free-form farming question.
func (a *AIController) Chat(ctx *gin.Context) {
	type request struct {
		Message string `json:"message" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}

	message := utils.SanitizeText(req.Message)
	if message == "" {
		utils.Error(ctx, http.StatusBadRequest, 40051, "message must not be empty")
		return
	}

	reply := a.chat.Chat(ctx.Request.Context(), message)
	utils.Success(ctx, gin.H{"reply": reply})
}

// CropSuggestions scores crop options for a region, season and soil.
func (a *AIController) CropSuggestions(ctx *gin.Context) {
	var query services.CropQuery
	if err := ctx.ShouldBindJSON(&query); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40052, "invalid request payload")
		return
	}

	query.Region = utils.SanitizeText(query.Region)
	query.Season = utils.SanitizeText(query.Season)
	query.Soil = utils.SanitizeText(query.Soil)

	suggestions := a.crops.Suggest(ctx.Request.Context(), query)
	utils.Success(ctx, gin.H{"suggestions": suggestions})
}
