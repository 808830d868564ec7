package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/microbase/go-microbase/pkg/config"
	"github.com/microbase/go-microbase/pkg/httputil"
)

// RateLimiter tracks a token bucket per client IP
type RateLimiter struct {
	cfg    config.RateLimitSettings
	logger *zap.Logger

	mu      sync.Mutex
	clients map[string]*clientLimiter

	cleanupInterval time.Duration
	lastCleanup     time.Time
}

// clientLimiter tracks rate limiting state for a single client
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter from settings
func NewRateLimiter(cfg config.RateLimitSettings, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		cfg:             cfg,
		logger:          logger.Named("ratelimit"),
		clients:         make(map[string]*clientLimiter),
		cleanupInterval: 10 * time.Minute,
		lastCleanup:     time.Now(),
	}
}

// getLimiter returns the limiter for a client, creating it if needed
func (r *RateLimiter) getLimiter(client string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if time.Since(r.lastCleanup) > r.cleanupInterval {
		r.cleanup()
	}

	cl, ok := r.clients[client]
	if ok {
		cl.lastSeen = time.Now()
		return cl.limiter
	}

	cl = &clientLimiter{
		limiter:  rate.NewLimiter(rate.Limit(r.cfg.RPS), r.cfg.Burst),
		lastSeen: time.Now(),
	}
	r.clients[client] = cl
	return cl.limiter
}

// cleanup removes limiters that have been idle, caller holds the lock
func (r *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-30 * time.Minute)
	for key, cl := range r.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(r.clients, key)
		}
	}
	r.lastCleanup = time.Now()
}

// Middleware returns the gin middleware enforcing the limit. Over-limit
// requests are answered with 429 and the standard error body.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.cfg.Enabled {
			c.Next()
			return
		}

		client := c.ClientIP()
		if !r.getLimiter(client).Allow() {
			r.logger.Warn("rate limit exceeded",
				zap.String("client_ip", client),
				zap.String("path", c.Request.URL.Path),
			)
			httputil.AbortError(c, http.StatusTooManyRequests, "")
			return
		}

		c.Next()
	}
}
