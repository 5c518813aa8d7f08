package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireSensorKey guards the HTTP presence ingest with a shared secret.
// Sensors are devices, not users, so they carry no JWT. An empty configured
// key disables the check (local development).
func RequireSensorKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		provided := c.GetHeader("X-Sensor-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid sensor key",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
