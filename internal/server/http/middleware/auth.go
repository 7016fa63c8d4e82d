package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/perkhub/pointsledger/internal/pkg/auth"
)

const (
	// CallerContextKey is a gin context key for the authenticated service
	// caller identifier.
	CallerContextKey = "caller"

	// AdminKeyHeader carries the admin API key on admin endpoints.
	AdminKeyHeader = "X-Admin-Key"
)

// TokenParser validates service tokens and yields the caller identifier.
type TokenParser interface {
	ParseServiceToken(token string) (string, error)
}

// AdminKeyChecker verifies the admin API key.
type AdminKeyChecker interface {
	VerifyAdminKey(key string) error
}

// ServiceAuthRequired ensures the request carries a valid service token
// before accessing handler.
func ServiceAuthRequired(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		caller, err := parser.ParseServiceToken(token)
		if err != nil {
			if errors.Is(err, pkgAuth.ErrInvalidToken) {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Set(CallerContextKey, caller)
		c.Next()
	}
}

// AdminAuthRequired ensures the request carries the admin API key. A missing
// key is unauthenticated, a wrong one is forbidden.
func AdminAuthRequired(checker AdminKeyChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(AdminKeyHeader)
		if key == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		if err := checker.VerifyAdminKey(key); err != nil {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
