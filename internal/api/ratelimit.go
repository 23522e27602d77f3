package api

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter applies a per-IP token bucket to API requests. Every request
// that gets through ends up as work on the engine handoff queue, so the
// limiter is what keeps a misbehaving dashboard from starving the bot loop.
type RateLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	rate        float64 // tokens per second (sustained rate)
	burst       int     // max tokens (burst capacity)
	staleAfter  time.Duration
	lastCleanup time.Time
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewRateLimiter creates a rate limiter with the given sustained
// requests-per-second rate and burst capacity.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets:     make(map[string]*bucket),
		rate:        rate,
		burst:       burst,
		staleAfter:  5 * time.Minute,
		lastCleanup: time.Now(),
	}
}

// Allow reports whether a request from the given IP should be served.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.cleanupLocked(now)

	b, ok := rl.buckets[ip]
	if !ok {
		// New client starts with a full bucket, minus this request.
		rl.buckets[ip] = &bucket{
			tokens:    float64(rl.burst) - 1,
			lastCheck: now,
		}
		return true
	}

	// Refill tokens based on elapsed time.
	elapsed := now.Sub(b.lastCheck).Seconds()
	b.tokens += elapsed * rl.rate
	if b.tokens > float64(rl.burst) {
		b.tokens = float64(rl.burst)
	}
	b.lastCheck = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}

	return false
}

// cleanupLocked drops buckets idle long enough to have refilled anyway.
// Piggybacking on Allow avoids a background goroutine; at most one sweep
// per staleAfter interval. Caller holds mu.
func (rl *RateLimiter) cleanupLocked(now time.Time) {
	if now.Sub(rl.lastCleanup) < rl.staleAfter {
		return
	}
	rl.lastCleanup = now
	for ip, b := range rl.buckets {
		if now.Sub(b.lastCheck) > rl.staleAfter {
			delete(rl.buckets, ip)
		}
	}
}

// Middleware returns an HTTP middleware that applies rate limiting.
// Returns 429 Too Many Requests when the rate is exceeded.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(extractIP(r)) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractIP extracts the client IP from RemoteAddr. Forwarding headers are
// ignored; for a loopback-bound API they can only be spoofed.
func extractIP(r *http.Request) string {
	ip := r.RemoteAddr

	// Strip port from IP:port format.
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		// IPv6 addresses arrive as [::1]:port.
		if strings.HasPrefix(ip, "[") {
			if bracketIdx := strings.Index(ip, "]:"); bracketIdx != -1 {
				ip = ip[1:bracketIdx]
			}
		} else {
			ip = ip[:idx]
		}
	}

	return ip
}
