// Package interceptors provides shared gin middleware: authentication,
// per-client rate limiting and request logging.
package interceptors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey    = "userID"
	userEmailKey = "userEmail"
)

// TokenValidator validates an access token and returns the subject user ID and email.
type TokenValidator interface {
	ValidateAccessToken(token string) (userID, email string, err error)
}

// Auth returns middleware that requires a valid bearer token.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}

		userID, email, err := validator.ValidateAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Set(userEmailKey, email)
		c.Next()
	}
}

// GetUserIDFromContext returns the authenticated user ID set by Auth.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(userIDKey)
	return id, id != ""
}

// GetUserEmailFromContext returns the authenticated user's email.
func GetUserEmailFromContext(c *gin.Context) (string, bool) {
	email := c.GetString(userEmailKey)
	return email, email != ""
}
