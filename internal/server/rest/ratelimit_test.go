package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/proofofplace/internal/logging"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/verify", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := RateLimiter(rdb, 2, time.Minute, "verify", logging.Nop())(okHandler)

	rec := hit(h, "10.0.0.1:1234")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1:1234").Code)

	rec = hit(h, "10.0.0.1:4321")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	// other clients have their own window
	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.2:1234").Code)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1:1234").Code)
}

func TestRateLimiter_KeyWithoutExpiryGetsWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	// counter left behind without a TTL
	require.NoError(t, mr.Set("pop:rl:verify:10.0.0.9", "5"))

	h := RateLimiter(rdb, 2, time.Minute, "verify", logging.Nop())(okHandler)

	rec := hit(h, "10.0.0.9:1234")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, time.Minute, mr.TTL("pop:rl:verify:10.0.0.9"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.9:1234").Code)
}

func TestRateLimiter_ScopesAreIndependent(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	verify := RateLimiter(rdb, 1, time.Minute, "verify", logging.Nop())(okHandler)
	notes := RateLimiter(rdb, 1, time.Minute, "notes", logging.Nop())(okHandler)

	assert.Equal(t, http.StatusNoContent, hit(verify, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(verify, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusNoContent, hit(notes, "10.0.0.1:1").Code)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	h := RateLimiter(rdb, 1, time.Minute, "verify", logging.Nop())(okHandler)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1:1").Code)
	}
}

func TestRateLimiter_DisabledWithoutRedis(t *testing.T) {
	h := RateLimiter(nil, 1, time.Minute, "verify", logging.Nop())(okHandler)
	for i := 0; i < 3; i++ {
		rec := hit(h, "10.0.0.1:1")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}
