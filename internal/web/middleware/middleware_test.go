package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestIPRateLimiterRefills(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewIPRateLimiter(60, 1, clock)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "budgets are per IP")

	clock.Advance(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestIPRateLimiterCleanup(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewIPRateLimiter(60, 5, clock)

	rl.Allow("10.0.0.1")
	clock.Advance(6 * time.Minute)
	rl.Allow("10.0.0.2")
	assert.Equal(t, 2, rl.Len())

	clock.Advance(5 * time.Minute)
	rl.Cleanup()
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewIPRateLimiter(1, 1, clockwork.NewFakeClock())
	h := RateLimit(rl)(okHandler)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/matches", nil)
		req.RemoteAddr = "192.0.2.7:5000"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://lostfound.klu.edu"})(okHandler)

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{"allowed origin", "GET", "https://lostfound.klu.edu", http.StatusOK, "https://lostfound.klu.edu"},
		{"unknown origin", "GET", "https://evil.example", http.StatusOK, ""},
		{"no origin", "GET", "", http.StatusOK, ""},
		{"preflight", http.MethodOptions, "https://lostfound.klu.edu", http.StatusNoContent, "https://lostfound.klu.edu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/matches", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestAuthentication(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		given  string
		want   int
	}{
		{"disabled", "", "", http.StatusOK},
		{"missing key", "secret", "", http.StatusUnauthorized},
		{"wrong key", "secret", "nope", http.StatusUnauthorized},
		{"valid key", "secret", "secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/stats", nil)
			if tt.given != "" {
				req.Header.Set("X-API-Key", tt.given)
			}
			rec := httptest.NewRecorder()
			Authentication(tt.apiKey)(okHandler).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRemoteHost(t *testing.T) {
	assert.Equal(t, "192.0.2.7", remoteHost("192.0.2.7:5000"))
	assert.Equal(t, "192.0.2.7", remoteHost("192.0.2.7"))
}
