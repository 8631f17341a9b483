package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/datamon/datamon-api/pkg/logger"
	"github.com/datamon/datamon-api/pkg/token"
)

const userIDKey = "userID"

// APIKeyAuthMiddleware gates the webhook management routes behind the shared
// management key.
func APIKeyAuthMiddleware(validKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")

		if key == "" || !token.SecureCompare(key, validKey) {
			logger.Warn("Invalid management API key",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireUserMiddleware extracts the caller identity set by the identity
// proxy in front of this API. Routes behind it always see a non-empty user.
func RequireUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-Id")

		if userID == "" {
			logger.Warn("Missing user identity",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID answers the identity stored by RequireUserMiddleware
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
