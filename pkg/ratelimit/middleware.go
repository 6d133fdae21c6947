package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"qscope/pkg/metrics"
)

type Limiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

type RateLimitConfig struct {
	RPS             float64
	Burst           int
	CleanupInterval time.Duration
	MaxAge          time.Duration
}

// DefaultConfig is sized for health probes and metric scrapes. Each /health
// request pings the queue service, so clients are held to a few per second.
func DefaultConfig() RateLimitConfig {
	return RateLimitConfig{
		RPS:             2.0,
		Burst:           5,
		CleanupInterval: 5 * time.Minute,
		MaxAge:          10 * time.Minute,
	}
}

// ClientLimiter keeps one token bucket per client IP.
type ClientLimiter struct {
	config   RateLimitConfig
	limiters map[string]*Limiter
	mu       sync.RWMutex
	now      func() time.Time
}

func NewClientLimiter(config RateLimitConfig) *ClientLimiter {
	return &ClientLimiter{
		config:   config,
		limiters: make(map[string]*Limiter),
		now:      time.Now,
	}
}

// RunCleanup drops idle client buckets until ctx ends.
func (l *ClientLimiter) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

func (l *ClientLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for ip, limiter := range l.limiters {
		limiter.mu.Lock()
		lastSeen := limiter.lastSeen
		limiter.mu.Unlock()
		if now.Sub(lastSeen) > l.config.MaxAge {
			delete(l.limiters, ip)
		}
	}
}

func (l *ClientLimiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}

func (l *ClientLimiter) get(clientIP string) *Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[clientIP]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		limiter, exists = l.limiters[clientIP]
		if !exists {
			limiter = &Limiter{
				limiter:  rate.NewLimiter(rate.Limit(l.config.RPS), l.config.Burst),
				lastSeen: l.now(),
			}
			l.limiters[clientIP] = limiter
		}
		l.mu.Unlock()
	}

	limiter.mu.Lock()
	limiter.lastSeen = l.now()
	limiter.mu.Unlock()
	return limiter
}

func (l *ClientLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := l.get(clientIP(r))

		w.Header().Set("X-RateLimit-Limit", formatRate(l.config.RPS))
		if !limiter.limiter.Allow() {
			metrics.RateLimitRequestsTotal.WithLabelValues("limited").Inc()
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "1")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded","error_code":"RATE_LIMIT_EXCEEDED"}`))
			return
		}

		metrics.RateLimitRequestsTotal.WithLabelValues("allowed").Inc()
		remaining := int(limiter.limiter.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func formatRate(rps float64) string {
	return strconv.FormatFloat(rps, 'f', -1, 64)
}
