// Package middleware provides the Gin middleware chain of the lead-intake API.
package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/leadintake/internal/metrics"
)

const (
	// maxBuckets caps the number of tracked client IPs.
	maxBuckets = 100_000

	bucketMaxAge    = 10 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// Limit is a token bucket shape: Rate tokens per second, at most Burst saved.
// Rates below one per second are allowed, e.g. 0.2 for twelve a minute.
type Limit struct {
	Rate  float64
	Burst int
}

// RateLimiter applies one Limit per client IP. Name labels its metrics.
type RateLimiter struct {
	name    string
	limit   Limit
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// take refills the bucket for the time elapsed since the last call and spends
// one token. When empty it returns how long until a token is available.
func (b *bucket) take(now time.Time, l Limit) (bool, time.Duration) {
	b.tokens = math.Min(float64(l.Burst), b.tokens+now.Sub(b.lastFill).Seconds()*l.Rate)
	b.lastFill = now

	if b.tokens >= 1 {
		b.tokens--

		return true, 0
	}

	wait := time.Duration((1 - b.tokens) / l.Rate * float64(time.Second))

	return false, wait
}

// NewRateLimiter creates a RateLimiter. Stale buckets are evicted by a
// background goroutine that stops when ctx is cancelled.
func NewRateLimiter(ctx context.Context, name string, limit Limit) *RateLimiter {
	rl := &RateLimiter{
		name:    name,
		limit:   limit,
		buckets: make(map[string]*bucket),
	}
	go rl.evictStale(ctx)

	return rl
}

func (rl *RateLimiter) evictStale(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if now.Sub(b.lastFill) > bucketMaxAge {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// allow reports whether the client at ip may proceed, and if not, for how long
// it should back off. full is true when a new client was refused because the
// bucket table is at capacity.
func (rl *RateLimiter) allow(ip string, now time.Time) (ok bool, wait time.Duration, full bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, found := rl.buckets[ip]
	if !found {
		if len(rl.buckets) >= maxBuckets {
			return false, time.Second, true
		}

		b = &bucket{tokens: float64(rl.limit.Burst), lastFill: now}
		rl.buckets[ip] = b
	}

	ok, wait = b.take(now, rl.limit)

	return ok, wait, false
}

// Handler returns Gin middleware that applies the limit per client IP.
// c.ClientIP ignores forwarding headers because the router trusts no proxies.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait, full := rl.allow(c.ClientIP(), time.Now())
		if ok {
			c.Next()

			return
		}

		metrics.RateLimitedTotal.WithLabelValues(rl.name).Inc()

		if full {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")

			return
		}

		c.Header("Retry-After", strconv.Itoa(max(1, int(math.Ceil(wait.Seconds())))))
		respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
	}
}
