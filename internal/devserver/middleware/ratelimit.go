package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ticketing-front/pkg/apierror"
)

const (
	defaultAuthRPM = 10
	clientIdleTTL  = 10 * time.Minute
	sweepEvery     = 5 * time.Minute
)

// exemptFromRateLimit covers /health, /metrics and the QR images a ticket
// list loads in bursts.
func exemptFromRateLimit(path string) bool {
	path = strings.ToLower(path)
	return path == "/health" || path == "/metrics" || strings.HasSuffix(path, "/qr.png")
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(strings.ToLower(path), "/auth/")
}

type clientBuckets struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int

	mu        sync.Mutex
	clients   map[string]*clientBuckets
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimitMiddleware limits each client IP per minute, with a
// separate budget for /auth routes. A non-positive generalRPM leaves the
// other routes unlimited; authRPM falls back to 10.
func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	if authRPM <= 0 {
		authRPM = defaultAuthRPM
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		clients:    map[string]*clientBuckets{},
		lastSweep:  time.Now(),
		now:        time.Now,
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if exemptFromRateLimit(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		buckets := m.bucketsFor(clientIP(r))
		limiter := buckets.general
		if isAuthPath(r.URL.Path) {
			limiter = buckets.auth
		}

		if limiter != nil {
			if wait, ok := m.take(limiter); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeJSONError(w, apierror.New("RATE_LIMITED", "Too many requests", http.StatusTooManyRequests))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// take spends a token when one is available, or reports how long until
// the next one.
func (m *RateLimitMiddleware) take(limiter *rate.Limiter) (time.Duration, bool) {
	now := m.now()
	reservation := limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay == 0 {
		return 0, true
	}
	reservation.CancelAt(now)
	return delay, false
}

func (m *RateLimitMiddleware) bucketsFor(ip string) *clientBuckets {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= sweepEvery {
		m.sweepLocked(now)
	}

	buckets, ok := m.clients[ip]
	if !ok {
		buckets = &clientBuckets{auth: perMinute(m.authRPM)}
		if m.generalRPM > 0 {
			buckets.general = perMinute(m.generalRPM)
		}
		m.clients[ip] = buckets
	}
	buckets.lastSeen = now
	return buckets
}

func (m *RateLimitMiddleware) sweepLocked(now time.Time) {
	m.lastSweep = now
	for ip, buckets := range m.clients {
		if now.Sub(buckets.lastSeen) > clientIdleTTL {
			delete(m.clients, ip)
		}
	}
}

func perMinute(rpm int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}

// clientIP prefers the first proxy hop, then X-Real-IP, then the peer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}
