package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "equity/internal/errors"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey = "userID"
	ClaimsKey = "claims"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format")
	}
	return parts[1], nil
}

// AuthMiddleware verifies the session token and sets the user id and claims
// in the context.
func AuthMiddleware(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			abortWithError(c, err)
			return
		}

		claims, err := issuer.Validate(c.Request.Context(), tokenString)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(UserIDKey, claims.UserID())
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// OptionalAuth sets the user id and claims when a valid token is presented
// and lets the request through either way.
func OptionalAuth(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err == nil {
			if claims, err := issuer.Validate(c.Request.Context(), tokenString); err == nil {
				c.Set(UserIDKey, claims.UserID())
				c.Set(ClaimsKey, claims)
			}
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims AuthMiddleware stored, if any.
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// abortWithError stops the chain with the error envelope.
func abortWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.ErrInternalServer
	}
	if appErr.StatusCode >= 500 {
		logError(c, appErr, err)
	}
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.Response())
}
