// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a process-local token-bucket rate limiter with one
// bucket per caller (user id when authenticated, client IP otherwise) and
// opportunistic eviction of idle buckets. Idempotent replays flagged by
// IdempotencyValidator are never limited.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys buckets by "user:<id>" when Authenticate resolved a
// caller and by "ip:<addr>" otherwise.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if id := UserID(c); id != 0 {
			return "user:" + strconv.FormatUint(uint64(id), 10)
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. Safe for concurrent use.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	keyFn    keyFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter builds a limiter refilling rps tokens per second with the
// given burst (values <= 0 become 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// getVisitor returns the limiter for key, creating it if absent. Every 5000
// lookups idle entries are evicted first, so a stale bucket can be evicted
// even when it is the one being fetched.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether the request was flagged as a replay.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// retryAfter is the whole number of seconds until lim grants a token, at
// least 1.
func retryAfter(lim *rate.Limiter) string {
	r := lim.Reserve()
	defer r.Cancel()
	secs := 1
	if r.OK() {
		if d := int(math.Ceil(r.Delay().Seconds())); d > secs {
			secs = d
		}
	}
	return strconv.Itoa(secs)
}

// Handler enforces the limit. Denied requests get 429, a Retry-After header
// and the standard error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		lim := rl.getVisitor(rl.keyFn(c))
		if lim.Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", retryAfter(lim))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
