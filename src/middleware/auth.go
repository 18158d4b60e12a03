package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	token string
}

func NewAuthMiddleware(operatorToken string) *AuthMiddleware {
	return &AuthMiddleware{token: operatorToken}
}

// RequireOperator guards the mutating endpoints. With no token configured
// they are disabled outright.
func (m *AuthMiddleware) RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.token == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operator endpoints are disabled"})
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		presented := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(m.token)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid operator token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
