package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newRateLimitRouter(rps rate.Limit, burst int) *gin.Engine {
	r := gin.New()
	r.Use(RateLimit(rps, burst))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hitFrom(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", ip)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	// Near-zero refill so the bucket does not recover mid-test.
	r := newRateLimitRouter(0.001, 3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hitFrom(r, "10.0.1.1"), "request %d within burst", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, hitFrom(r, "10.0.1.1"))
}

func TestRateLimit_BucketsArePerIP(t *testing.T) {
	r := newRateLimitRouter(0.001, 1)
	assert.Equal(t, http.StatusOK, hitFrom(r, "10.1.1.1"))
	assert.Equal(t, http.StatusOK, hitFrom(r, "10.1.1.2"))
	assert.Equal(t, http.StatusTooManyRequests, hitFrom(r, "10.1.1.1"))
}

func TestClientLimiters_SweepDropsIdle(t *testing.T) {
	cl := &clientLimiters{buckets: make(map[string]*clientBucket), rps: 1, burst: 1}
	cl.allow("10.2.0.1")
	cl.allow("10.2.0.2")
	cl.buckets["10.2.0.1"].lastSeen = time.Now().Add(-limiterIdleFor - time.Minute)

	cl.sweep()

	assert.NotContains(t, cl.buckets, "10.2.0.1")
	assert.Contains(t, cl.buckets, "10.2.0.2")
}
