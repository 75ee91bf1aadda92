package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/relance/internal/auth"
	"github.com/DukeRupert/relance/internal/clock"
	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/handler"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter counts hits per key in fixed windows. A key's window opens on
// its first hit and lasts for window; hits past maxAttempts are refused until
// it closes.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	clock       clock.Clock
	logger      *slog.Logger

	mu      sync.Mutex
	windows map[string]*keyWindow

	stop     chan struct{}
	stopOnce sync.Once
}

type keyWindow struct {
	hits   int
	opened time.Time
}

// NewRateLimiter creates a limiter and starts its sweeper. Call Stop when the
// limiter is no longer used.
func NewRateLimiter(maxAttempts int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		clock:       clock.Real{},
		logger:      logger,
		windows:     make(map[string]*keyWindow),
		stop:        make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// current returns the open window for key, or nil. Callers hold mu.
func (rl *RateLimiter) current(key string, now time.Time) *keyWindow {
	kw, ok := rl.windows[key]
	if !ok || now.Sub(kw.opened) >= rl.window {
		return nil
	}
	return kw
}

// hit counts one hit for key and returns the window it landed in.
func (rl *RateLimiter) hit(key string, now time.Time) *keyWindow {
	kw := rl.current(key, now)
	if kw == nil {
		kw = &keyWindow{opened: now}
		rl.windows[key] = kw
	}
	kw.hits++
	return kw
}

// Allow counts a hit for key and reports whether it fits in the window.
// Refused hits are not counted.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	if kw := rl.current(key, now); kw != nil && kw.hits >= rl.maxAttempts {
		return false
	}
	rl.hit(key, now)
	return true
}

// RecordFailure counts a hit for key regardless of the limit. Authentication
// failures are recorded this way and checked with Exceeded.
func (rl *RateLimiter) RecordFailure(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if kw := rl.hit(key, rl.clock.Now()); kw.hits == rl.maxAttempts {
		rl.logger.Warn("Failure limit reached", "key", key, "window", rl.window)
	}
}

// Exceeded reports whether key has used up its window, without counting.
func (rl *RateLimiter) Exceeded(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	kw := rl.current(key, rl.clock.Now())
	return kw != nil && kw.hits >= rl.maxAttempts
}

// Reset forgets key.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.windows, key)
}

// TimeUntilReset returns how long until key's window closes.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	kw := rl.current(key, now)
	if kw == nil {
		return 0
	}
	return kw.opened.Add(rl.window).Sub(now)
}

// Stop ends the sweeper goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// sweep drops closed windows once per window length.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

func (rl *RateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for key := range rl.windows {
		if rl.current(key, now) == nil {
			delete(rl.windows, key)
		}
	}
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimitMiddleware wraps a rate limiter for use as HTTP middleware.
type RateLimitMiddleware struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware.
func NewRateLimitMiddleware(limiter *RateLimiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  logger,
	}
}

// Limit returns middleware that rate limits requests. Authenticated requests
// are counted per organization, anonymous ones per client IP.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + getClientIP(r)
		if org := auth.GetOrganization(r.Context()); org != nil {
			key = "org:" + org.ID.String()
		}

		if !m.limiter.Allow(key) {
			m.logger.Warn("Rate limit exceeded",
				"key", key,
				"path", r.URL.Path,
				"method", r.Method,
			)
			tooManyRequests(w, m.limiter.TimeUntilReset(key))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// tooManyRequests writes a 429 with a Retry-After of at least one second.
func tooManyRequests(w http.ResponseWriter, wait time.Duration) {
	retryAfter := int(wait.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(handler.JSONError{
		Error:   domain.ERATELIMIT,
		Message: "Too many requests. Please try again later.",
	})
}

// =============================================================================
// Helpers
// =============================================================================

// getClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
