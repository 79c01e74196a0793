package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps a token bucket per authenticated user. Buckets are
// created lazily and never evicted; the map stays small because it is
// keyed by active user ids.
type RateLimiter struct {
	mu    sync.Mutex
	m     map[uint]*rate.Limiter
	rps   rate.Limit
	burst int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &RateLimiter{
		m:     make(map[uint]*rate.Limiter),
		rps:   rate.Limit(rps),
		burst: burst,
	}
}

func (l *RateLimiter) get(userID uint) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.m[userID]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.m[userID] = lim
	return lim
}

func (l *RateLimiter) Allow(userID uint) bool {
	return l.get(userID).Allow()
}

// Middleware rejects requests over the per-user budget. It must run
// after AuthMiddleware so the user id is resolved.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(MustUserID(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
