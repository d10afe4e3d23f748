package middleware

import (
	"net/http"

	"lessonbook/internal/domain"
	"lessonbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole rejects requests whose actor has none of the allowed roles.
// Admins pass every check.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Actor not found in context")
			c.Abort()
			return
		}
		if actor.IsAdmin() {
			c.Next()
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		c.Abort()
	}
}
