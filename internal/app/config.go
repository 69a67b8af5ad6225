package app

import (
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/courseledger-backend/internal/db"
	"github.com/yungbote/courseledger-backend/internal/http/middleware"
	"github.com/yungbote/courseledger-backend/internal/platform/envutil"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

type Config struct {
	LogMode  string
	HTTPAddr string

	DB          db.Config
	AutoMigrate bool

	JWTSecretKey string
	CORSOrigins  []string

	RedisAddr    string
	RedisChannel string
	CacheEnabled bool
	CacheTTL     time.Duration

	IntegrityRulesPath    string
	AggregatorConcurrency int
}

// LoadEnv reads .env when present. A missing file is not an error.
func LoadEnv() {
	_ = godotenv.Load()
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		LogMode:  envutil.String("LOG_MODE", "development"),
		HTTPAddr: envutil.String("HTTP_ADDR", ":8080"),
		DB: db.Config{
			Driver:     envutil.String("DB_DRIVER", db.DriverPostgres),
			DSN:        envutil.String("DATABASE_DSN", ""),
			Host:       envutil.String("POSTGRES_HOST", "localhost"),
			Port:       envutil.String("POSTGRES_PORT", "5432"),
			User:       envutil.String("POSTGRES_USER", "postgres"),
			Password:   envutil.String("POSTGRES_PASSWORD", ""),
			Name:       envutil.String("POSTGRES_NAME", "courseledger"),
			SQLitePath: envutil.String("SQLITE_PATH", "courseledger.db"),
		},
		AutoMigrate:           envutil.Bool("AUTO_MIGRATE", true),
		JWTSecretKey:          envutil.String("JWT_SECRET_KEY", ""),
		CORSOrigins:           envutil.CSV("CORS_ORIGINS", middleware.DefaultCORSOrigins),
		RedisAddr:             envutil.String("REDIS_ADDR", ""),
		RedisChannel:          envutil.String("REDIS_CHANNEL", "progress"),
		CacheEnabled:          envutil.Bool("PROGRESS_CACHE_ENABLED", false),
		CacheTTL:              envutil.Duration("PROGRESS_CACHE_TTL", 5*time.Minute),
		IntegrityRulesPath:    envutil.String("INTEGRITY_RULES_PATH", ""),
		AggregatorConcurrency: envutil.Int("AGGREGATOR_CONCURRENCY", 8),
	}
	if log != nil {
		if cfg.JWTSecretKey == "" {
			log.Warn("JWT_SECRET_KEY is empty; every authenticated request will be rejected")
		}
		if cfg.CacheEnabled && cfg.RedisAddr == "" {
			log.Warn("PROGRESS_CACHE_ENABLED without REDIS_ADDR; cache disabled")
		}
	}
	return cfg
}
