package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/profiles/backend/internal/logctx"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter counts a hit for key and decides whether it is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RateLimiter is a fixed-window Limiter backed by Redis.
type RateLimiter struct {
	redis  redis.Cmdable
	config RateLimitConfig
	now    func() time.Time
}

var _ Limiter = (*RateLimiter)(nil)

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient redis.Cmdable, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
		now:    time.Now,
	}
}

// NewLoginRateLimiter limits login attempts per client.
func NewLoginRateLimiter(redisClient redis.Cmdable, window time.Duration, limit int) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    window,
		Limit:     limit,
		KeyPrefix: "rate_limit:login",
	})
}

// Allow increments the counter for key in the current window.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	windowStart := rl.now().Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	// INCR and EXPIRE travel together so a counter never outlives its window.
	pipe := rl.redis.TxPipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(incrCmd.Val())
	return Decision{
		Allowed:   count <= rl.config.Limit,
		Limit:     rl.config.Limit,
		Remaining: max(rl.config.Limit-count, 0),
		ResetAt:   windowStart.Add(rl.config.Window),
	}, nil
}

// KeyFunc derives the rate limit key for a request.
type KeyFunc func(c *gin.Context) string

// ByClientIP keys requests by the client address.
func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimit rejects requests over the limiter's budget with 429. Limiter
// errors let the request through.
func RateLimit(limiter Limiter, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := limiter.Allow(c.Request.Context(), key(c))
		if err != nil {
			logctx.From(c.Request.Context()).Warn("rate limit check failed", slog.Any("error", err))
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			retryAfter := max(int(time.Until(d.ResetAt).Seconds()), 0)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
