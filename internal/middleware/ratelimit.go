package middleware

import (
	"net/http"
	"strings"

	"burnlink/internal/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit 全局限流中间件，传输层的请求限速与引擎的每日配额是两回事：
// 这里挡的是瞬时流量，daily_limit 由引擎在创建时自己执行。
func RateLimit(limitConfig *config.Limit) gin.HandlerFunc {
	if !limitConfig.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	// 基于内存的限流器，按分钟速率换算
	limiter := rate.NewLimiter(rate.Limit(float64(limitConfig.Requests)/60.0), int(limitConfig.Burst))

	return func(c *gin.Context) {
		// 跳过特定路径
		for _, path := range limitConfig.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "请求过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
