package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/quotegrep/quotegrep/pkg/log"
	"golang.org/x/time/rate"
)

// blockedPathFragments are probe paths that never belong to this API; matching
// requests are rejected before any handler runs.
var blockedPathFragments = []string{
	".php",
	".env",
	"wp-admin",
	"wp-login",
	"phpmyadmin",
	".git",
}

// blockedUserAgents are scanner signatures rejected outright.
var blockedUserAgents = []string{
	"sqlmap",
	"nikto",
	"masscan",
	"nmap",
	"zgrab",
}

// SecurityMiddleware sets baseline response headers and rejects obvious
// scanner traffic.
func SecurityMiddleware(next http.Handler) http.Handler {
	logger := log.ForComponent("api")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")

		path := strings.ToLower(r.URL.Path)
		for _, fragment := range blockedPathFragments {
			if strings.Contains(path, fragment) {
				logger.Debugf("blocked path probe %s from %s", r.URL.Path, r.RemoteAddr)
				http.NotFound(w, r)
				return
			}
		}

		ua := strings.ToLower(r.UserAgent())
		for _, sig := range blockedUserAgents {
			if strings.Contains(ua, sig) {
				logger.Debugf("blocked user agent %q from %s", r.UserAgent(), r.RemoteAddr)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// ipLimiter tracks one token bucket per client IP. Buckets idle for an hour
// are evicted.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	rps      rate.Limit
	burst    int
}

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	l := &ipLimiter{
		limiters: make(map[string]*ipLimiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	go l.evictLoop()
	return l
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

func (l *ipLimiter) evictLoop() {
	for range time.Tick(10 * time.Minute) {
		cutoff := time.Now().Add(-time.Hour)
		l.mu.Lock()
		for ip, entry := range l.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(l.limiters, ip)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimitMiddleware applies a per-IP token bucket to every request.
func RateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := newIPLimiter(rps, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.allow(ip) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GzipMiddleware compresses responses for clients that accept it.
func GzipMiddleware(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}
