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

// WeatherController proxies OpenWeather lookups.
type WeatherController struct {
	weather *services.WeatherService
}

// NewWeatherController creates a new controller instance.
func NewWeatherController(weather *services.WeatherService) *WeatherController {
	return &WeatherController{weather: weather}
}

func parseLatLon(ctx *gin.Context) (float64, float64, bool) {
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(ctx.Query("lat")), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(ctx.Query("lon")), 64)
	if errLat != nil || errLon != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "lat and lon are required")
		return 0, 0, false
	}
	return lat, lon, true
}

func respondWeatherError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWeatherKeyMissing):
		utils.Error(ctx, http.StatusServiceUnavailable, 50340, "weather service not configured")
	case errors.Is(err, services.ErrWeatherUpstream):
		utils.Error(ctx, http.StatusBadGateway, 50240, "weather provider unavailable")
	default:
		utils.Error(ctx, http.StatusBadGateway, 50241, "weather lookup failed")
	}
}

// Current returns present conditions for a coordinate.
func (w *WeatherController) Current(ctx *gin.Context) {
	lat, lon, ok := parseLatLon(ctx)
	if !ok {
		return
	}

	current, err := w.weather.Current(ctx.Request.Context(), lat, lon)
	if err != nil {
		respondWeatherError(ctx, err)
		return
	}
	utils.Success(ctx, current)
}

// Forecast returns the next day of 3-hourly forecast steps.
func (w *WeatherController) Forecast(ctx *gin.Context) {
	lat, lon, ok := parseLatLon(ctx)
	if !ok {
		return
	}

	forecast, err := w.weather.NextDay(ctx.Request.Context(), lat, lon)
	if err != nil {
		respondWeatherError(ctx, err)
		return
	}
	utils.Success(ctx, forecast)
}
