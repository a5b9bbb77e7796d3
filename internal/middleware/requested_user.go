package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"profilevault/internal/domain/user"
	"profilevault/internal/pkg/response"
)

// LoadRequestedUser replaces "requested_user" with the user named by the :user_id path
// parameter, answering 404 when no such user exists.
func LoadRequestedUser(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("user_id")
		if id == "" {
			response.Abort(c, http.StatusBadRequest, "INVALID_ID", "Missing user id")
			return
		}

		u, err := users.GetByID(c.Request.Context(), id)
		if errors.Is(err, user.ErrUserNotFound) {
			response.Abort(c, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		if err != nil {
			_ = c.Error(err)
			response.Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not load user")
			return
		}

		c.Set("requested_user", u)
		c.Next()
	}
}
