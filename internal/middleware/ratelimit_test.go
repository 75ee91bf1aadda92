package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DukeRupert/relance/internal/auth"
	"github.com/DukeRupert/relance/internal/clock"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// RateLimiter Tests
// =============================================================================

func newTestLimiter(t *testing.T, maxAttempts int, window time.Duration) (*RateLimiter, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	rl := NewRateLimiter(maxAttempts, window, discardLogger())
	rl.clock = clk
	t.Cleanup(rl.Stop)
	return rl, clk
}

func TestRateLimiter_Allow(t *testing.T) {
	rl, _ := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "hit %d", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// Other keys have their own window
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiter_WindowCloses(t *testing.T) {
	rl, clk := newTestLimiter(t, 2, time.Minute)

	rl.Allow("k")
	rl.Allow("k")
	assert.False(t, rl.Allow("k"))
	assert.Equal(t, time.Minute, rl.TimeUntilReset("k"))

	clk.Advance(40 * time.Second)
	assert.False(t, rl.Allow("k"))
	assert.Equal(t, 20*time.Second, rl.TimeUntilReset("k"))

	clk.Advance(20 * time.Second)
	assert.Zero(t, rl.TimeUntilReset("k"))
	assert.True(t, rl.Allow("k"))
}

func TestRateLimiter_RecordFailureAndExceeded(t *testing.T) {
	rl, clk := newTestLimiter(t, 2, 15*time.Minute)

	assert.False(t, rl.Exceeded("10.0.0.1"))
	rl.RecordFailure("10.0.0.1")
	assert.False(t, rl.Exceeded("10.0.0.1"))
	rl.RecordFailure("10.0.0.1")
	assert.True(t, rl.Exceeded("10.0.0.1"))

	// Exceeded does not count
	assert.True(t, rl.Exceeded("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	clk.Advance(15 * time.Minute)
	assert.False(t, rl.Exceeded("10.0.0.1"))
}

func TestRateLimiter_Reset(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)

	rl.Allow("k")
	assert.False(t, rl.Allow("k"))

	rl.Reset("k")
	assert.True(t, rl.Allow("k"))
}

func TestRateLimiter_Prune(t *testing.T) {
	rl, clk := newTestLimiter(t, 5, time.Minute)

	rl.Allow("old")
	clk.Advance(30 * time.Second)
	rl.Allow("fresh")
	clk.Advance(45 * time.Second)

	rl.prune()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.windows, "old")
	assert.Contains(t, rl.windows, "fresh")
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, discardLogger())
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

// =============================================================================
// RateLimitMiddleware Tests
// =============================================================================

func serveLimited(wrapped http.Handler, remoteAddr string, org *repository.Organization) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/quotes/1/mark-sent", nil)
	req.RemoteAddr = remoteAddr
	if org != nil {
		req = req.WithContext(auth.SetOrganization(req.Context(), org))
	}
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitMiddleware_BlocksAfterLimit(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute)
	mw := NewRateLimitMiddleware(rl, discardLogger())

	wrapped := mw.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := serveLimited(wrapped, "192.168.1.1:12345", nil)

		if i < 2 && rec.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if i == 2 {
			if rec.Code != http.StatusTooManyRequests {
				t.Errorf("request %d: expected 429, got %d", i+1, rec.Code)
			}
			if rec.Header().Get("Retry-After") == "" {
				t.Error("expected Retry-After header to be set")
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected application/json content type, got %s", ct)
			}
		}
	}
}

func TestRateLimitMiddleware_KeysByOrganization(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)
	mw := NewRateLimitMiddleware(rl, discardLogger())

	wrapped := mw.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	orgA := &repository.Organization{ID: uuid.New()}
	orgB := &repository.Organization{ID: uuid.New()}

	// Same IP, different organizations
	if rec := serveLimited(wrapped, "10.0.0.1:1", orgA); rec.Code != http.StatusOK {
		t.Errorf("org A: expected 200, got %d", rec.Code)
	}
	if rec := serveLimited(wrapped, "10.0.0.1:1", orgB); rec.Code != http.StatusOK {
		t.Errorf("org B: expected 200, got %d", rec.Code)
	}

	// Same organization, different IP
	if rec := serveLimited(wrapped, "10.0.0.2:1", orgA); rec.Code != http.StatusTooManyRequests {
		t.Errorf("org A again: expected 429, got %d", rec.Code)
	}
}

func TestRateLimitMiddleware_XForwardedFor(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute)
	mw := NewRateLimitMiddleware(rl, discardLogger())

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrapped := mw.Limit(handler)

	// Requests with X-Forwarded-For header (behind proxy)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/webhooks/stripe", nil)
		req.RemoteAddr = "10.0.0.1:12345" // Proxy IP
		req.Header.Set("X-Forwarded-For", "203.0.113.195, 70.41.3.18, 150.172.238.178")
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		if i < 2 && rec.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if i == 2 && rec.Code != http.StatusTooManyRequests {
			t.Errorf("request %d: expected 429, got %d", i+1, rec.Code)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.168.1.1:12345", nil, "192.168.1.1"},
		{"remote addr without port", "192.168.1.1", nil, "192.168.1.1"},
		{"x-forwarded-for first hop", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18"}, "203.0.113.195"},
		{"x-real-ip", "10.0.0.1:1", map[string]string{"X-Real-IP": " 203.0.113.7 "}, "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
