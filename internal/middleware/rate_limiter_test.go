package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBurstThenRefill(t *testing.T) {
	lim := newLimiter(10, 2, time.Minute) // 10 tokens/s, burst 2

	assert.True(t, lim.allow("k"))
	assert.True(t, lim.allow("k"))
	assert.False(t, lim.allow("k"))

	time.Sleep(150 * time.Millisecond)
	assert.True(t, lim.allow("k"))
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	lim := newLimiter(0.000001, 1, time.Minute)

	assert.True(t, lim.allow("a"))
	assert.False(t, lim.allow("a"))
	assert.True(t, lim.allow("b"))
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitWith(60, 2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// a different client keeps its own bucket
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
