package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(60, time.Minute, 1, nil)
	defer rl.Close()

	assert.True(t, rl.Allow("ip:10.0.0.1"))
	assert.False(t, rl.Allow("ip:10.0.0.1"))
	assert.True(t, rl.Allow("ip:10.0.0.2"), "each client has its own bucket")

	stats := rl.GetStats()
	assert.Equal(t, 2, stats["active_limiters"])
	assert.Equal(t, uint64(1), stats["rejected_requests"])
	assert.Equal(t, 1, rl.RetryAfter())
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(60, time.Hour, 1, nil)
	defer rl.Close()

	rl.Allow("ip:10.0.0.1")
	rl.Allow("ip:10.0.0.2")
	rl.mu.Lock()
	rl.lastSeen["ip:10.0.0.1"] = time.Now().Add(-2 * time.Hour)
	rl.mu.Unlock()

	rl.cleanup(time.Hour)
	assert.Equal(t, 1, rl.GetStats()["active_limiters"])
}

func TestRateLimiterCloseTwice(t *testing.T) {
	rl := NewRateLimiter(60, time.Minute, 1, nil)
	rl.Close()
	assert.NotPanics(t, rl.Close)
}

func TestGetRateLimitKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/templates", nil)
	r.RemoteAddr = "192.0.2.1:4000"

	assert.Equal(t, "ip:192.0.2.1", getRateLimitKey(r, true, true))
	assert.Empty(t, getRateLimitKey(r, true, false))

	r.Header.Set("Authorization", "Bearer abcdefghijk")
	assert.Equal(t, "api:abcdefghijk", getRateLimitKey(r, true, true))
	assert.Equal(t, "api:abcdefgh****", maskRateLimitKey("api:abcdefghijk"))

	r.Header.Set("X-Forwarded-For", "not-an-ip, 198.51.100.7")
	assert.Equal(t, "ip:198.51.100.7", getRateLimitKey(r, false, true))
}
