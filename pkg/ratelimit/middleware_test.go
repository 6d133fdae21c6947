package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func request(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestClientLimiter_Middleware(t *testing.T) {
	l := NewClientLimiter(RateLimitConfig{RPS: 0.001, Burst: 2, CleanupInterval: time.Minute, MaxAge: time.Minute})
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:1001").Code)

	limited := request(h, "10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, request(h, "10.0.0.2:1000").Code)
	assert.Equal(t, 2, l.Len())
}

func TestClientLimiter_Cleanup(t *testing.T) {
	l := NewClientLimiter(RateLimitConfig{RPS: 1, Burst: 1, CleanupInterval: time.Minute, MaxAge: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.get("10.0.0.1")
	now = now.Add(30 * time.Second)
	l.get("10.0.0.2")

	now = now.Add(45 * time.Second)
	l.Cleanup()
	assert.Equal(t, 1, l.Len())
}
