package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/safestreets/safemap/internal/auth"
)

// adminToken extracts the session token from the X-Admin-Token header or an
// Authorization: Bearer header.
func adminToken(c *gin.Context) string {
	token := c.GetHeader("X-Admin-Token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	return token
}

// AdminAuthMiddleware guards store-mutating routes. Anonymous callers are
// rejected before any handler runs, even though the UI never exposes these
// actions to them.
func AdminAuthMiddleware(gate *auth.Gate, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := adminToken(c)
		if token == "" {
			log.Warn("Admin token missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin token required"})
			return
		}

		if !gate.IsAdmin(token) {
			log.Warn("Invalid admin token provided")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin token"})
			return
		}

		c.Next()
	}
}
