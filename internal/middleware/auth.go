package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"profilevault/internal/domain/user"
	"profilevault/internal/pkg/jwt"
	"profilevault/internal/pkg/response"
)

type TokenValidator interface {
	ValidateToken(tokenStr string) (*jwt.Claims, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Authenticate resolves the session token (Authorization: Bearer, or the session cookie)
// into an active user. It sets "principal" and, for the caller's own routes,
// "requested_user" to the same user.
func Authenticate(tokens TokenValidator, users UserLookup, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, code, msg := extractToken(c, cookieName)
		if tokenStr == "" {
			response.Abort(c, http.StatusUnauthorized, code, msg)
			return
		}

		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
			return
		}

		u, err := users.GetByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, user.ErrUserNotFound) {
			response.Abort(c, http.StatusUnauthorized, "INVALID_USER", "Invalid user")
			return
		}
		if err != nil {
			_ = c.Error(err)
			response.Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not resolve user")
			return
		}
		if !u.Status {
			response.Abort(c, http.StatusUnauthorized, "INVALID_USER", "Invalid user")
			return
		}

		c.Set("principal", u.Principal())
		c.Set("requested_user", u)
		c.Set("user_id", u.ID)
		c.Set("role", u.RoleRef)

		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) (token, code, msg string) {
	h := c.GetHeader("Authorization")
	if h != "" {
		if !strings.HasPrefix(h, "Bearer ") {
			return "", "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'"
		}
		token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if token == "" {
			return "", "INVALID_AUTH_FORMAT", "Empty token"
		}
		return token, "", ""
	}

	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), "", ""
		}
	}
	return "", "AUTH_HEADER_MISSING", "No token provided"
}
