package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "equity/internal/errors"
	"equity/internal/logger"
)

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into consistent JSON error responses. AppErrors are returned with
// their code and message; unexpected errors are logged and return a generic
// internal error to avoid leaking details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// Process the last error (most relevant in a middleware chain)
		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if appErr.Internal != nil {
				logError(c, appErr, appErr.Internal)
			}
			c.JSON(appErr.StatusCode, appErr.Response())
			return
		}

		logError(c, apperrors.ErrInternalServer, err)
		c.JSON(apperrors.ErrInternalServer.StatusCode, apperrors.ErrInternalServer.Response())
	}
}

func logError(c *gin.Context, appErr *apperrors.AppError, cause error) {
	requestID, _ := c.Get(RequestIDKey)
	logger.Get().Errorw("request failed",
		"code", appErr.Code,
		"error", cause.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"request_id", requestID,
	)
}
