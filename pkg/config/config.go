package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Provider selection for the five record providers.
const (
	ProviderCanvas   = "canvas"
	ProviderSnapshot = "snapshot"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Canvas     CanvasConfig
	Provider   string
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Dashboard  DashboardConfig
	Prediction PredictionConfig
	Reports    ReportsConfig
}

// CanvasConfig points at the upstream Canvas LMS instance.
type CanvasConfig struct {
	BaseURL string
	Timeout time.Duration
	PerPage int
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig tunes aggregation fan-out and caching.
type DashboardConfig struct {
	CacheEnabled    bool
	CacheTTL        time.Duration
	WorkerPoolSize  int
	UpcomingWindow  time.Duration
	UpcomingLimit   int
	RecentGradesMax int
}

// PredictionConfig governs the regression forecaster.
type PredictionConfig struct {
	MinSamples int
}

// ReportsConfig toggles semester report exports and their on-disk archive.
type ReportsConfig struct {
	Enabled     bool
	Dir         string
	DownloadTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Provider = v.GetString("RECORD_PROVIDER")

	cfg.Canvas = CanvasConfig{
		BaseURL: strings.TrimRight(v.GetString("CANVAS_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("CANVAS_TIMEOUT"), 10*time.Second),
		PerPage: v.GetInt("CANVAS_PER_PAGE"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheEnabled:    v.GetBool("DASHBOARD_CACHE_ENABLED"),
		CacheTTL:        parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 2*time.Minute),
		WorkerPoolSize:  v.GetInt("DASHBOARD_WORKER_POOL_SIZE"),
		UpcomingWindow:  parseDuration(v.GetString("DASHBOARD_UPCOMING_WINDOW"), 7*24*time.Hour),
		UpcomingLimit:   v.GetInt("DASHBOARD_UPCOMING_LIMIT"),
		RecentGradesMax: v.GetInt("DASHBOARD_RECENT_GRADES_MAX"),
	}

	cfg.Prediction = PredictionConfig{
		MinSamples: v.GetInt("PREDICTION_MIN_SAMPLES"),
	}

	cfg.Reports = ReportsConfig{
		Enabled:     v.GetBool("ENABLE_REPORTS"),
		Dir:         v.GetString("REPORTS_DIR"),
		DownloadTTL: parseDuration(v.GetString("REPORTS_DOWNLOAD_TTL"), 24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("RECORD_PROVIDER", ProviderCanvas)

	v.SetDefault("CANVAS_BASE_URL", "https://canvas.instructure.com")
	v.SetDefault("CANVAS_TIMEOUT", "10s")
	v.SetDefault("CANVAS_PER_PAGE", 100)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "canvas_snapshot")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DASHBOARD_CACHE_ENABLED", false)
	v.SetDefault("DASHBOARD_CACHE_TTL", "2m")
	v.SetDefault("DASHBOARD_WORKER_POOL_SIZE", 20)
	v.SetDefault("DASHBOARD_UPCOMING_WINDOW", "168h")
	v.SetDefault("DASHBOARD_UPCOMING_LIMIT", 10)
	v.SetDefault("DASHBOARD_RECENT_GRADES_MAX", 5)

	v.SetDefault("PREDICTION_MIN_SAMPLES", 5)

	v.SetDefault("ENABLE_REPORTS", true)
	v.SetDefault("REPORTS_DIR", "./exports")
	v.SetDefault("REPORTS_DOWNLOAD_TTL", "24h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
