package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/astravedam-backend/internal/metrics"
	"github.com/go-chi/httprate"
	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
	headerReferrerPolicy          = "Referrer-Policy"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		w.Header().Set(headerReferrerPolicy, "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost (e.g. api.astravedam.com).
// allowedHost is the bare hostname without scheme or port; "" disables the check.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	globalRateLimitRPS    = 5
	globalRateLimitBurst  = 20
	limiterCleanupEvery   = 5 * time.Minute
	limiterIdleExpiration = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// IPRateLimiter is an in-process token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	entries  map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	clientIP func(*http.Request) string
	cleanup  sync.Once
}

func NewIPRateLimiter(limit rate.Limit, burst int, clientIP func(*http.Request) string) *IPRateLimiter {
	return &IPRateLimiter{
		entries:  make(map[string]*limiterEntry),
		limit:    limit,
		burst:    burst,
		clientIP: clientIP,
	}
}

func (l *IPRateLimiter) get(ip string) *rate.Limiter {
	l.cleanup.Do(func() { go l.sweep() })

	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func (l *IPRateLimiter) sweep() {
	ticker := time.NewTicker(limiterCleanupEvery)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for ip, e := range l.entries {
			if now.Sub(e.lastUse) > limiterIdleExpiration {
				delete(l.entries, ip)
			}
		}
		l.mu.Unlock()
	}
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.get(l.clientIP(r)).Allow() {
			metrics.RecordRateLimited("global")
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthRateLimit guards the sign-in routes: 10 requests per minute per IP.
func AuthRateLimit(clientIP func(*http.Request) string) func(http.Handler) http.Handler {
	return httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return clientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimited("auth")
			writeError(w, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
		}),
	)
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → per-IP rate limit.
func ProductionSecurity(allowedHost string, clientIP func(*http.Request) string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		NewIPRateLimiter(rate.Limit(globalRateLimitRPS), globalRateLimitBurst, clientIP).Middleware,
	}
}
