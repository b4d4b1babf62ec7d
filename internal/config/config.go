package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const devJWTSecret = "dev-only-secret-change-me-0123456789abcdef"

type Config struct {
	AppEnv        string `mapstructure:"APP_ENV"`
	Port          string `mapstructure:"PORT"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	BaseURL       string `mapstructure:"BASE_URL"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`
	RedisURL      string `mapstructure:"REDIS_URL"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	CORSOrigins   string `mapstructure:"CORS_ORIGINS"`

	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	ResetTokenTTL  time.Duration `mapstructure:"RESET_TOKEN_TTL"`

	RateLimitMax       int           `mapstructure:"RATE_LIMIT_MAX"`
	RateLimitWindow    time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
	RateLimitCacheSize int           `mapstructure:"RATE_LIMIT_CACHE_SIZE"`
	GlobalRateLimitRPS float64       `mapstructure:"GLOBAL_RATE_LIMIT_RPS"`
	GlobalRateBurst    int           `mapstructure:"GLOBAL_RATE_LIMIT_BURST"`

	AuditQueueSize int `mapstructure:"AUDIT_QUEUE_SIZE"`

	AdminName     string `mapstructure:"ADMIN_NAME"`
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `mapstructure:"SERVICE_NAME"`
}

func LoadConfig() (config Config, err error) {
	v := viper.New()
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("DATABASE_URL", "sqlite://linkvault.db")
	v.SetDefault("MIGRATIONS_DIR", "file://migrations")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", time.Hour)
	v.SetDefault("RESET_TOKEN_TTL", time.Hour)
	v.SetDefault("RATE_LIMIT_MAX", 5)
	v.SetDefault("RATE_LIMIT_WINDOW", 60*time.Second)
	v.SetDefault("RATE_LIMIT_CACHE_SIZE", 10000)
	v.SetDefault("GLOBAL_RATE_LIMIT_RPS", 20.0)
	v.SetDefault("GLOBAL_RATE_LIMIT_BURST", 40)
	v.SetDefault("AUDIT_QUEUE_SIZE", 100)
	v.SetDefault("ADMIN_NAME", "Administrator")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("SERVICE_NAME", "linkvault")

	v.AutomaticEnv()

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unable to decode config: %w", err)
	}

	if config.JWTSecret == "" {
		if config.IsProduction() {
			return config, errors.New("JWT_SECRET must be set in production")
		}
		config.JWTSecret = devJWTSecret
	}
	if config.RateLimitMax <= 0 {
		return config, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", config.RateLimitMax)
	}
	if config.RateLimitWindow <= 0 {
		return config, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", config.RateLimitWindow)
	}

	return config, nil
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
