package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/studyvault/pkg/configs"
)

// limiterEntry 带最近访问时间的限流器.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedLimiter 按维度键维护限流器集合，后台定期清理过期项.
type keyedLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     rate.Limit
	burst   int
}

// limiterIdleTTL 限流器空闲回收时间.
const limiterIdleTTL = 10 * time.Minute

func newKeyedLimiter(rps float64, burst int) *keyedLimiter {
	kl := &keyedLimiter{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
	}

	go kl.cleanup()

	return kl
}

// allow 检查指定键是否放行.
func (kl *keyedLimiter) allow(key string) bool {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	entry, ok := kl.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(kl.rps, kl.burst)}
		kl.entries[key] = entry
	}

	entry.lastSeen = time.Now()

	return entry.limiter.Allow()
}

// cleanup 定期清理长时间未访问的限流器.
func (kl *keyedLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		kl.mu.Lock()

		for key, entry := range kl.entries {
			if time.Since(entry.lastSeen) > limiterIdleTTL {
				delete(kl.entries, key)
			}
		}

		kl.mu.Unlock()
	}
}

// RateLimitMiddleware 速率限制中间件，支持 global/ip/header:<name> 三种维度.
func RateLimitMiddleware(cfg *configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	// global 使用单一限流器，其余维度按键分桶
	if cfg.Key == "global" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if !limiter.Allow() {
				abortRateLimited(c)

				return
			}

			c.Next()
		}
	}

	kl := newKeyedLimiter(cfg.RPS, cfg.Burst)
	headerName, _ := strings.CutPrefix(cfg.Key, "header:")

	return func(c *gin.Context) {
		var key string

		if headerName != cfg.Key {
			key = c.GetHeader(headerName)
			if key == "" {
				key = c.ClientIP()
			}
		} else {
			key = c.ClientIP()
		}

		if !kl.allow(key) {
			abortRateLimited(c)

			return
		}

		c.Next()
	}
}

func abortRateLimited(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"success": false,
		"error":   "rate limit exceeded",
	})
}
