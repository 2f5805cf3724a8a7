package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"notepad/pkg/errors"
)

// Auth endpoints get 1 request per second with a burst of 5 per client IP
const (
	authRate  = rate.Limit(1.0)
	authBurst = 5
	staleTTL  = 10 * time.Minute
)

var ErrRateLimited = errors.New(errors.ErrTypeValidation, "RATE_LIMIT_EXCEEDED", "too many requests").
	WithUserMessage("Too many requests. Please slow down")

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore maps client keys to token buckets. Stale entries are swept
// during lookups so no background goroutine is needed.
type limiterStore struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(limit rate.Limit, burst int) *limiterStore {
	return &limiterStore{
		entries: make(map[string]*limiterEntry),
		limit:   limit,
		burst:   burst,
		now:     time.Now,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > time.Minute {
		cutoff := now.Add(-staleTTL)
		for k, e := range s.entries {
			if e.lastSeen.Before(cutoff) {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}

	if e, ok := s.entries[key]; ok {
		e.lastSeen = now
		return e.limiter
	}
	lim := rate.NewLimiter(s.limit, s.burst)
	s.entries[key] = &limiterEntry{limiter: lim, lastSeen: now}
	return lim
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitAuth applies a strict per-IP limit to login and registration
func RateLimitAuth() func(http.Handler) http.Handler {
	return RateLimit(authRate, authBurst)
}

// RateLimit applies a per-IP token bucket. Preflight requests pass through.
func RateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	store := newLimiterStore(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if !store.get(clientIP(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				writeJSON(w, errors.ToFrontendError(ErrRateLimited))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
