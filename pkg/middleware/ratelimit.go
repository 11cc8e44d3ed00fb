package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client IP
type IPRateLimiter struct {
	mu  sync.Mutex
	ips map[string]*rate.Limiter
	r   rate.Limit // requests per second
	b   int        // burst size

	requestsPerMinute int
}

// NewIPRateLimiter creates a limiter allowing requestsPerMinute per IP with
// bursts of up to burst requests. Idle buckets are dropped until ctx is done.
func NewIPRateLimiter(ctx context.Context, requestsPerMinute, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = requestsPerMinute
	}

	limiter := &IPRateLimiter{
		ips:               make(map[string]*rate.Limiter),
		r:                 rate.Limit(float64(requestsPerMinute) / 60.0),
		b:                 burst,
		requestsPerMinute: requestsPerMinute,
	}

	go limiter.cleanup(ctx, 5*time.Minute)

	return limiter
}

// GetLimiter returns the rate limiter for the given IP
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}

	return limiter
}

func (i *IPRateLimiter) cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.mu.Lock()
			for ip, limiter := range i.ips {
				// A full bucket has not been used recently
				if limiter.Tokens() >= float64(i.b) {
					delete(i.ips, ip)
				}
			}
			i.mu.Unlock()
		}
	}
}

// RateLimitMiddleware rejects clients over their limit with 429 and reports
// the remaining budget in X-RateLimit headers
func RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ipLimiter := limiter.GetLimiter(c.ClientIP())

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.requestsPerMinute))

		if !ipLimiter.Allow() {
			reservation := ipLimiter.Reserve()
			if reservation.OK() {
				c.Header("Retry-After", fmt.Sprintf("%d", int(reservation.Delay().Seconds())+1))
				reservation.Cancel()
			}

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, please try again later",
			})
			return
		}

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%.0f", ipLimiter.Tokens()))
		c.Next()
	}
}
