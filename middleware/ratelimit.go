package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterSweepEvery = 5 * time.Minute
	limiterIdleFor    = 10 * time.Minute
)

// clientLimiters holds one token bucket per client IP and drops buckets
// that have gone quiet.
type clientLimiters struct {
	mu      sync.Mutex
	buckets map[string]*clientBucket
	rps     rate.Limit
	burst   int
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (cl *clientLimiters) allow(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	b, ok := cl.buckets[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(cl.rps, cl.burst)}
		cl.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

func (cl *clientLimiters) sweep() {
	cutoff := time.Now().Add(-limiterIdleFor)
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for ip, b := range cl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(cl.buckets, ip)
		}
	}
}

// RateLimit caps requests per client IP with a token bucket of rps
// refill rate and the given burst.
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	cl := &clientLimiters{
		buckets: make(map[string]*clientBucket),
		rps:     rps,
		burst:   burst,
	}

	go func() {
		ticker := time.NewTicker(limiterSweepEvery)
		defer ticker.Stop()
		for range ticker.C {
			cl.sweep()
		}
	}()

	return func(c *gin.Context) {
		if !cl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
