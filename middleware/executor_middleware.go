package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/launchdeck-platform/config"
)

// ExecutorAuthMiddleware authenticates build executor callbacks with a
// static shared key. Callbacks are machine-to-machine, so JWT auth does
// not apply here.
func ExecutorAuthMiddleware() gin.HandlerFunc {
	apiKey := config.GetEnv("EXECUTOR_API_KEY", "")

	return func(c *gin.Context) {
		if apiKey == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "error",
				"message": "Executor callbacks are not configured",
			})
			c.Abort()
			return
		}

		requestKey := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(requestKey), []byte(apiKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Invalid API key",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
