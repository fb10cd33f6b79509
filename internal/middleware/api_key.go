package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "equity/internal/errors"
)

// APIKeyMiddleware guards operational endpoints such as /metrics with the
// X-API-Key header. An empty key leaves the endpoint open.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperrors.Response{
				Error: "Invalid or missing API key",
				Code:  "INVALID_API_KEY",
			})
			return
		}
		c.Next()
	}
}
