package middleware

import (
	"net/http"
	"strings"

	"lessonbook/internal/domain"
	jwtsvc "lessonbook/internal/pkg/jwt"
	"lessonbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// Auth validates the bearer token and stores an explicit domain.Actor in the
// context. Services receive the actor as a value; nothing downstream reads
// session state.
func Auth(jwt *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid Authorization header")
			c.Abort()
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		claims, err := jwt.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			c.Abort()
			return
		}

		c.Set(actorKey, domain.Actor{ID: claims.UserID, Role: domain.Role(claims.Role)})
		c.Next()
	}
}

// ActorFrom extracts the authenticated actor set by Auth.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}
