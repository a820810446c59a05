package middleware

import (
	"net/http"
	"sync"
	"time"

	"tasktrack/backend/internal/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit enforces a per-client-IP token bucket. Buckets for clients not
// seen within two cleanup intervals are swept inline on request arrival;
// there is no background janitor, so building a router starts no
// goroutines.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	var mu sync.Mutex
	clients := make(map[string]*clientLimiter)
	lastSweep := time.Now()

	perSecond := rate.Limit(float64(cfg.RequestsPerMin) / 60.0)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > cfg.CleanupInterval {
			for addr, client := range clients {
				if now.Sub(client.lastSeen) > 2*cfg.CleanupInterval {
					delete(clients, addr)
				}
			}
			lastSweep = now
		}

		client, exists := clients[ip]
		if !exists {
			client = &clientLimiter{limiter: rate.NewLimiter(perSecond, cfg.BurstSize)}
			clients[ip] = client
		}
		client.lastSeen = now
		mu.Unlock()

		if !client.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
