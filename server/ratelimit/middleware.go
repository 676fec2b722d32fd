package ratelimit

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Config 速率限制配置
type Config struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
	KeyFunc           func(*gin.Context) string // 默认按客户端 IP
}

// NewLimiterFromConfig 从配置创建限流器
func NewLimiterFromConfig(config Config) *TokenBucketLimiter {
	return NewTokenBucketLimiter(config.RequestsPerSecond, config.Burst, 0)
}

// Middleware 创建速率限制中间件, 超限时返回 429
func Middleware(config Config, limiter Limiter) gin.HandlerFunc {
	if !config.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string {
			return c.ClientIP()
		}
	}

	return func(c *gin.Context) {
		key := keyFunc(c)
		allowed := limiter.Allow(key)
		info := limiter.GetInfo(key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))

		if !allowed {
			retry := int(math.Ceil(info.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
