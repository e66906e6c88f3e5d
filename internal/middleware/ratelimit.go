// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterEntry is the token bucket of a single client.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	rate    rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
	stopCh  chan struct{}
}

// NewRateLimiter creates a rate limiter that refills rps tokens per second
// up to burst. It starts a background goroutine to drop idle clients.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*limiterEntry),
		rate:    rate.Limit(rps),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	// Periodic cleanup of idle entries every 5 minutes.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// allow takes a token from the key's bucket.
func (rl *RateLimiter) allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	entry, exists := rl.clients[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = entry
	}
	entry.lastSeen = now
	rl.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// cleanup removes clients idle for longer than idleTTL. A dropped client
// starts again with a full bucket.
func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.idleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, entry := range rl.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// Middleware returns an HTTP middleware that rate-limits each caller. It
// runs before RequireUser, so the identity header is trusted only as a
// bucket key.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !rl.allow(key) {
			slog.Warn("rate limit exceeded", "client", key, "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey buckets identified callers by user id and anonymous ones by IP.
func clientKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
		return "user:" + id
	}
	return "ip:" + clientIP(r)
}

// clientIP returns the originating address: the leftmost X-Forwarded-For
// entry, then X-Real-IP, then RemoteAddr without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
