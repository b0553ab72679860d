package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Redis is optional; without it counters live in process memory
	Redis        *redis.Client
	Requests     int
	Window       time.Duration
	KeyPrefix    string
	SkipPaths    []string
	ErrorMessage string
}

// RateLimitStrategy defines different rate limiting strategies
type RateLimitStrategy string

const (
	StrategyIP       RateLimitStrategy = "ip"
	StrategyUser     RateLimitStrategy = "user"
	StrategyUserOrIP RateLimitStrategy = "user_or_ip"
)

// RateLimiter is a sliding-window limiter backed by a Redis sorted set
// per key, or by utils.MemoryRateLimiter when Redis is not configured.
type RateLimiter struct {
	config   RateLimitConfig
	strategy RateLimitStrategy
	memory   *utils.MemoryRateLimiter
}

func NewRateLimiter(config RateLimitConfig, strategy RateLimitStrategy) *RateLimiter {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "rate_limit"
	}
	if config.ErrorMessage == "" {
		config.ErrorMessage = "Too many requests. Please try again later."
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	rl := &RateLimiter{config: config, strategy: strategy}
	if config.Redis == nil {
		rl.memory = utils.NewMemoryRateLimiter(config.Requests, config.Window)
	}
	return rl
}

// Prune drops idle in-memory buckets; a no-op with Redis.
func (rl *RateLimiter) Prune() {
	if rl.memory != nil {
		rl.memory.Prune()
	}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.shouldSkipPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		key := rl.getKey(c)
		if key == "" {
			c.Next()
			return
		}

		allowed, remaining, resetTime, err := rl.checkRateLimit(c.Request.Context(), key)
		if err != nil {
			// fail open
			logrus.WithError(err).Error("Rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			rl.handleRateLimitExceeded(c, key, resetTime)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string) (bool, int, time.Time, error) {
	if rl.memory != nil {
		allowed, remaining, resetAt := rl.memory.Allow(key)
		return allowed, remaining, resetAt, nil
	}

	now := time.Now()
	window := rl.config.Window
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())

	pipe := rl.config.Redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(now.Add(-window).UnixNano(), 10))
	count := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, key, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	current := int(count.Val())
	if current >= rl.config.Requests {
		// rejected hits do not count against the window
		rl.config.Redis.ZRem(ctx, key, member)
		return false, 0, now.Add(window), nil
	}

	return true, rl.config.Requests - current - 1, now.Add(window), nil
}

func (rl *RateLimiter) getKey(c *gin.Context) string {
	prefix := rl.config.KeyPrefix
	actor, authenticated := CurrentUser(c)

	switch rl.strategy {
	case StrategyUser:
		if !authenticated {
			return ""
		}
		return fmt.Sprintf("%s:user:%s", prefix, actor.UserID.Hex())
	case StrategyUserOrIP:
		if authenticated {
			return fmt.Sprintf("%s:user:%s", prefix, actor.UserID.Hex())
		}
	}
	return fmt.Sprintf("%s:ip:%s", prefix, c.ClientIP())
}

func (rl *RateLimiter) handleRateLimitExceeded(c *gin.Context, key string, resetTime time.Time) {
	retryAfter := int(time.Until(resetTime).Seconds())
	if retryAfter < 0 {
		retryAfter = 0
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))

	logrus.WithFields(logrus.Fields{
		"key":         key,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"retry_after": retryAfter,
	}).Warn("Rate limit exceeded")

	utils.TooManyRequestsResponse(c, rl.config.ErrorMessage)
	c.Abort()
}

func (rl *RateLimiter) shouldSkipPath(path string) bool {
	for _, skipPath := range rl.config.SkipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// Predefined rate limiters

// APIRateLimit limits every /api request per user, or per IP before login
func APIRateLimit(redis *redis.Client, requests int, window time.Duration) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Redis:        redis,
		Requests:     requests,
		Window:       window,
		KeyPrefix:    "rate_limit:api",
		ErrorMessage: "API rate limit exceeded. Please try again later.",
		SkipPaths:    []string{"/health", "/metrics", "/ws"},
	}, StrategyUserOrIP)
}

// AuthRateLimit guards login and signup against credential stuffing
func AuthRateLimit(redis *redis.Client) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Redis:        redis,
		Requests:     10,
		Window:       time.Minute,
		KeyPrefix:    "rate_limit:auth",
		ErrorMessage: "Too many authentication attempts. Please try again later.",
	}, StrategyIP)
}

// OTPRateLimit guards the forgot-password flow
func OTPRateLimit(redis *redis.Client) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Redis:        redis,
		Requests:     5,
		Window:       15 * time.Minute,
		KeyPrefix:    "rate_limit:otp",
		ErrorMessage: "Too many password reset attempts. Please try again later.",
	}, StrategyIP)
}
