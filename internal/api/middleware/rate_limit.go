package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gocg-permutas/pkg/redis"
	"gocg-permutas/pkg/response"
)

// RateLimit sliding-window limit per client IP and route, backed by Redis.
// With a nil client, or when Redis fails, requests pass.
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", c.ClientIP(), c.FullPath())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, 10004, "Muitas tentativas. Aguarde alguns minutos.")
			c.Abort()
			return
		}

		c.Next()
	}
}
