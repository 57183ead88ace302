package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/astravedam-backend/internal/logging"
	"github.com/AnshRaj112/astravedam-backend/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the number of requests allowed per window
	RateLimitMaxRequests = 100
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked after exceeding the limit
	BlockedIPDuration = 15 * time.Minute
)

// RedisRateLimiter counts requests per IP in fixed Redis windows and blocks
// an IP for BlockedIPDuration once it goes over. Redis errors fail open.
type RedisRateLimiter struct {
	rdb      *redis.Client
	clientIP func(*http.Request) string
	window   time.Duration
	max      int
	blockFor time.Duration
}

func NewRedisRateLimiter(rdb *redis.Client, clientIP func(*http.Request) string) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:      rdb,
		clientIP: clientIP,
		window:   RateLimitWindow,
		max:      RateLimitMaxRequests,
		blockFor: BlockedIPDuration,
	}
}

func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := l.clientIP(r)

		blocked, err := l.IsBlocked(ctx, ip)
		if err == nil && blocked {
			metrics.RecordRateLimited("redis")
			writeError(w, http.StatusTooManyRequests, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
			return
		}

		key := RateLimitKeyPrefix + ip
		count, err := l.rdb.Incr(ctx, key).Result()
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			l.rdb.Expire(ctx, key, l.window)
		}

		if count > int64(l.max) {
			if err := l.rdb.Set(ctx, BlockedIPKeyPrefix+ip, "1", l.blockFor).Err(); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("ip", ip).Msg("Failed to block IP")
			}
			metrics.RecordRateLimited("redis")
			w.Header().Set("Retry-After", strconv.Itoa(int(l.blockFor.Seconds())))
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(l.max)-count, 10))
		next.ServeHTTP(w, r)
	})
}

// Unblock lifts a block early.
func (l *RedisRateLimiter) Unblock(ctx context.Context, ip string) error {
	return l.rdb.Del(ctx, BlockedIPKeyPrefix+ip).Err()
}

func (l *RedisRateLimiter) IsBlocked(ctx context.Context, ip string) (bool, error) {
	n, err := l.rdb.Exists(ctx, BlockedIPKeyPrefix+ip).Result()
	return n > 0, err
}
