// config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

type Config struct {
	Environment string
	Port        string
	DatabaseURL string
	RedisURL    string
	Version     string

	// Auth
	JWTSecret         string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	UniformAuthErrors bool
	BcryptCost        int
	OTPTTL            time.Duration

	// HTTP
	CORSOrigins      []string
	RateLimitEnabled bool
	RateLimitRequest int
	RateLimitWindow  time.Duration

	// Realtime
	EventRelayEnabled bool
	EventRelayChannel string

	// Startup
	SeedOnStart bool

	Notifications NotificationConfig
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "5000"),
		DatabaseURL: getEnv("MONGO_URI", getEnv("DATABASE_URL", "mongodb://127.0.0.1:27017/disaster-guardian")),
		RedisURL:    getEnv("REDIS_URL", ""),
		Version:     getEnv("APP_VERSION", "1.0.0"),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		AccessTokenTTL:    getEnvAsDuration("JWT_ACCESS_TTL", time.Hour),
		RefreshTokenTTL:   getEnvAsDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		UniformAuthErrors: getEnvAsBool("AUTH_UNIFORM_ERRORS", false),
		BcryptCost:        getEnvAsInt("BCRYPT_COST", 10),
		OTPTTL:            getEnvAsDuration("OTP_TTL", 10*time.Minute),

		CORSOrigins:      getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		RateLimitEnabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequest: getEnvAsInt("RATE_LIMIT_REQUESTS", 300),
		RateLimitWindow:  getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),

		EventRelayEnabled: getEnvAsBool("EVENT_RELAY_ENABLED", true),
		EventRelayChannel: getEnv("EVENT_RELAY_CHANNEL", "guardian:events"),

		SeedOnStart: getEnvAsBool("SEED_ON_START", false),

		Notifications: LoadNotificationConfig(),
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = "disaster-guardian-dev-secret"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.DatabaseURL == "" {
		return errors.New("MONGO_URI is required")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Notifications.SMSWorkers < 1 {
		return errors.New("SMS_WORKERS must be at least 1")
	}
	return nil
}

// InitRedis returns nil when no REDIS_URL is configured; callers treat
// Redis-backed features as optional.
func InitRedis(cfg *Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		// Fallback to default config
		opt = &redis.Options{
			Addr: "localhost:6379",
			DB:   0,
		}
	}

	return redis.NewClient(opt)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
