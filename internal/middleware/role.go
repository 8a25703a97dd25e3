package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through only when the authenticated user holds requiredRole.
// It must run after AuthenticateToken.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortWithFailure(c, http.StatusUnauthorized, "Access token required")
			return
		}

		if user.Role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success":      false,
				"error":        "Insufficient permissions",
				"requiredRole": requiredRole,
				"userRole":     user.Role,
			})
			return
		}

		c.Next()
	}
}
