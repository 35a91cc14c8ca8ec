package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	GinMode            string
	GinPath            string
	AllowedOrigins     []string
	RateLimitPerMinute int
	// Points awarded by the daily check-in claim
	DailyClaimPoints int
	// Database: SQLitePath is the default engine; DatabaseURI switches to MySQL
	DatabaseURI string
	SQLitePath  string
	// Redis for the scheme-listing cache
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// OpenWeather proxy
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	// AI providers, tried in order: OpenRouter, OpenAI, Ollama
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string
	OpenAIAPIKey      string
	OpenAIModel       string
	OllamaBase        string
	OllamaModel       string
	// Government scheme listing scrape
	SchemesSourceURL   string
	SchemesCacheTTLSec int
	// e-Shram verification proxy
	EshramBaseURL      string
	EshramAuthPath     string
	EshramValidatePath string
	EshramClientID     string
	EshramClientSecret string
	EshramTokenTTLSec  int
	// RGI certificate verification proxy
	RGIBaseURL      string
	RGIBirthPath    string
	RGIDeathPath    string
	RGIAPIKey       string
	RGIAPIKeyHeader string
	RGIConsumerID   string
	RGIProviderID   string
	RGIPurpose      string
}

var (
	cfg    AppConfig
	loaded bool
)

// Load builds the configuration and caches it for Get.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	cfg = AppConfig{}

	// .env files are optional; real environment always wins
	_ = godotenv.Load()

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			case json.Number:
				i, _ := t.Int64()
				return int(i)
			}
		}
		return 0
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		out.GinMode = getString(app, "GinMode")
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if v := getInt(app, "DailyClaimPoints"); v != 0 {
			out.DailyClaimPoints = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
	}
	if db, ok := raw["database"].(map[string]any); ok {
		out.DatabaseURI = getString(db, "DatabaseURI")
		out.SQLitePath = getString(db, "SQLitePath")
	}
	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}
	if lg, ok := raw["logging"].(map[string]any); ok {
		out.LogLevel = getString(lg, "LogLevel")
		out.LogPath = getString(lg, "LogPath")
		out.GinPath = getString(lg, "GinPath")
		out.LogMaxSizeMB = getInt(lg, "LogMaxSizeMB")
		out.LogMaxBackups = getInt(lg, "LogMaxBackups")
		out.LogMaxAgeDays = getInt(lg, "LogMaxAgeDays")
	}
	if ext, ok := raw["external"].(map[string]any); ok {
		out.OpenWeatherAPIKey = getString(ext, "OpenWeatherAPIKey")
		out.OpenRouterAPIKey = getString(ext, "OpenRouterAPIKey")
		out.OpenRouterModel = getString(ext, "OpenRouterModel")
		out.OpenAIAPIKey = getString(ext, "OpenAIAPIKey")
		out.OpenAIModel = getString(ext, "OpenAIModel")
		out.SchemesSourceURL = getString(ext, "SchemesSourceURL")
		if v := getInt(ext, "SchemesCacheTTLSec"); v != 0 {
			out.SchemesCacheTTLSec = v
		}
		out.EshramClientID = getString(ext, "EshramClientID")
		out.EshramClientSecret = getString(ext, "EshramClientSecret")
		out.RGIAPIKey = getString(ext, "RGIAPIKey")
	}

	return nil
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if c.DailyClaimPoints == 0 {
		c.DailyClaimPoints = 5
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "krishiyukti.db"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.OpenWeatherBaseURL == "" {
		c.OpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if c.OpenRouterBaseURL == "" {
		c.OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	}
	if c.OpenRouterModel == "" {
		c.OpenRouterModel = "openai/gpt-4o"
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = "gpt-4o-mini"
	}
	if c.OllamaBase == "" {
		c.OllamaBase = "http://127.0.0.1:11434"
	}
	if c.OllamaModel == "" {
		c.OllamaModel = "llama3:latest"
	}
	if c.SchemesSourceURL == "" {
		c.SchemesSourceURL = "https://www.myscheme.gov.in/schemes"
	}
	if c.SchemesCacheTTLSec == 0 {
		c.SchemesCacheTTLSec = 1800
	}
	if c.EshramBaseURL == "" {
		c.EshramBaseURL = "https://betaapiregisterapi.eshram.gov.in/externalscheme-api-service"
	}
	if c.EshramAuthPath == "" {
		c.EshramAuthPath = "/api/v1/generateAuthToken"
	}
	if c.EshramValidatePath == "" {
		c.EshramValidatePath = "/api/v1/validateUserByUanAndDob"
	}
	if c.EshramTokenTTLSec == 0 {
		c.EshramTokenTTLSec = 1500
	}
	if c.RGIBaseURL == "" {
		c.RGIBaseURL = "https://apisetu.gov.in/certificate/v3/rgi"
	}
	if c.RGIBirthPath == "" {
		c.RGIBirthPath = "/btcer"
	}
	if c.RGIDeathPath == "" {
		c.RGIDeathPath = "/dtcer"
	}
	if c.RGIAPIKeyHeader == "" {
		c.RGIAPIKeyHeader = "x-api-key"
	}
	if c.RGIConsumerID == "" {
		c.RGIConsumerID = "krishiyukti-app"
	}
	if c.RGIProviderID == "" {
		c.RGIProviderID = "rgi"
	}
	if c.RGIPurpose == "" {
		c.RGIPurpose = "Certificate verification for citizen"
	}
}

func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		parts := strings.Split(v, ",")
		res := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				res = append(res, s)
			}
		}
		if len(res) > 0 {
			c.AllowedOrigins = res
		}
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateLimitPerMinute = n
		}
	}
	if v := getEnv("DAILY_CLAIM_POINTS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.DailyClaimPoints = n
		}
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("SQLITE_PATH", ""); v != "" {
		c.SQLitePath = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisPort = n
		}
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LogMaxSizeMB = n
		}
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LogMaxBackups = n
		}
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LogMaxAgeDays = n
		}
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "1" || strings.EqualFold(v, "true")
	}
	if v := getEnv("OPENWEATHER_API_KEY", ""); v != "" {
		c.OpenWeatherAPIKey = v
	}
	if v := getEnv("OPENWEATHER_BASE_URL", ""); v != "" {
		c.OpenWeatherBaseURL = v
	}
	if v := getEnv("OPENROUTER_API_KEY", ""); v != "" {
		c.OpenRouterAPIKey = v
	}
	if v := getEnv("OPENROUTER_BASE_URL", ""); v != "" {
		c.OpenRouterBaseURL = v
	}
	if v := getEnv("OPENROUTER_MODEL", ""); v != "" {
		c.OpenRouterModel = v
	}
	if v := getEnv("OPENAI_API_KEY", ""); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := getEnv("OPENAI_MODEL", ""); v != "" {
		c.OpenAIModel = v
	}
	if v := getEnv("OLLAMA_BASE", ""); v != "" {
		c.OllamaBase = v
	}
	if v := getEnv("OLLAMA_MODEL", ""); v != "" {
		c.OllamaModel = v
	}
	if v := getEnv("SCHEMES_SOURCE_URL", ""); v != "" {
		c.SchemesSourceURL = v
	}
	if v := getEnv("SCHEMES_CACHE_TTL", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SchemesCacheTTLSec = n
		}
	}
	if v := getEnv("ESHRAM_BASE_URL", ""); v != "" {
		c.EshramBaseURL = v
	}
	if v := getEnv("ESHRAM_AUTH_PATH", ""); v != "" {
		c.EshramAuthPath = v
	}
	if v := getEnv("ESHRAM_VALIDATE_PATH", ""); v != "" {
		c.EshramValidatePath = v
	}
	if v := getEnv("ESHRAM_CLIENT_ID", ""); v != "" {
		c.EshramClientID = v
	}
	if v := getEnv("ESHRAM_CLIENT_SECRET", ""); v != "" {
		c.EshramClientSecret = v
	}
	if v := getEnv("ESHRAM_TOKEN_TTL", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.EshramTokenTTLSec = n
		}
	}
	if v := getEnv("RGI_BASE_URL", ""); v != "" {
		c.RGIBaseURL = v
	}
	if v := getEnv("RGI_BIRTH_PATH", ""); v != "" {
		c.RGIBirthPath = v
	}
	if v := getEnv("RGI_DEATH_PATH", ""); v != "" {
		c.RGIDeathPath = v
	}
	if v := getEnv("RGI_API_KEY", ""); v != "" {
		c.RGIAPIKey = v
	}
	if v := getEnv("RGI_API_KEY_HEADER", ""); v != "" {
		c.RGIAPIKeyHeader = v
	}
	if v := getEnv("RGI_CONSUMER_ID", ""); v != "" {
		c.RGIConsumerID = v
	}
	if v := getEnv("RGI_PROVIDER_ID", ""); v != "" {
		c.RGIProviderID = v
	}
	if v := getEnv("RGI_PURPOSE", ""); v != "" {
		c.RGIPurpose = v
	}
}
