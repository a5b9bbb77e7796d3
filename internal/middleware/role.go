package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"profilevault/internal/domain/user"
	"profilevault/internal/pkg/response"
)

// RequireSelfOrRole lets a request through when the principal is the requested user or
// holds role. Run it after LoadRequestedUser.
func RequireSelfOrRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, exists := c.Get("principal")
		principal, ok := p.(user.Principal)
		if !exists || !ok {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		if v, exists := c.Get("requested_user"); exists {
			if u, ok := v.(*user.User); ok && u.ID == principal.ID {
				c.Next()
				return
			}
		}

		if principal.RoleRef != role {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}
