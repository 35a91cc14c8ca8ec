package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/krishiyukti/krishiyukti/config"
	"github.com/krishiyukti/krishiyukti/controllers"
	"github.com/krishiyukti/krishiyukti/middleware"
	"github.com/krishiyukti/krishiyukti/services"
	"github.com/krishiyukti/krishiyukti/utils"
)

// Services bundles the external-facing service clients the router wires into
// controllers. Tests inject their own instances here.
type Services struct {
	Weather *services.WeatherService
	Chat    *services.ChatService
	Crops   *services.CropService
	Schemes *services.SchemeService
	Eshram  *services.EshramService
	RGI     *services.RGIService
}

// BuildServices constructs the default service set from configuration.
func BuildServices(cfg config.AppConfig) Services {
	return Services{
		Weather: services.NewWeatherService(cfg),
		Chat:    services.NewChatService(cfg),
		Crops:   services.NewCropService(cfg),
		Schemes: services.NewSchemeService(cfg, utils.NewRedisCache(utils.GetRedis())),
		Eshram:  services.NewEshramService(cfg),
		RGI:     services.NewRGIService(cfg),
	}
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, svc Services) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	ginLogPath := cfg.GinPath
	// Use application log level as reference
	gl, err := utils.NewRollingFileLogger(ginLogPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))

	authController := controllers.NewAuthController(db)
	profileController := controllers.NewProfileController(db)
	rewardsController := controllers.NewRewardsController(db)
	weatherController := controllers.NewWeatherController(svc.Weather)
	aiController := controllers.NewAIController(svc.Chat, svc.Crops)
	updatesController := controllers.NewUpdatesController(svc.Schemes, svc.Eshram, svc.RGI)

	api := r.Group("/api")

	api.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.POST("/link-device", middleware.AuthRequired(), authController.LinkDevice)

	profileGroup := api.Group("/profile")
	profileGroup.POST("/init", profileController.InitProfile)
	profileGroup.GET("", profileController.GetProfile)
	profileGroup.POST("/name", profileController.SetName)
	profileGroup.POST("/add-points", profileController.AddPoints)
	profileGroup.POST("/award-badge", profileController.AwardBadge)
	profileGroup.POST("/claim-daily", profileController.ClaimDaily)
	profileGroup.GET("/activity", profileController.ListActivity)

	rewardsGroup := api.Group("/rewards")
	rewardsGroup.GET("/catalog", rewardsController.Catalog)
	rewardsGroup.POST("/redeem", rewardsController.Redeem)

	weatherGroup := api.Group("/weather")
	weatherGroup.GET("/current", weatherController.Current)
	weatherGroup.GET("/forecast", weatherController.Forecast)

	aiGroup := api.Group("/ai")
	aiGroup.POST("/chat", aiController.Chat)
	aiGroup.POST("/crop-suggestions", aiController.CropSuggestions)

	updatesGroup := api.Group("/updates")
	updatesGroup.GET("/schemes", updatesController.Schemes)
	updatesGroup.POST("/eshram/validate", updatesController.EshramValidate)
	updatesGroup.POST("/rgi/birth", updatesController.RGIBirth)
	updatesGroup.POST("/rgi/death", updatesController.RGIDeath)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
