package mw

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"roombooking-backend/internal/auth"
	"roombooking-backend/internal/model"
)

const userKey = "currentUser"

// UserLookup loads the account behind a token.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "unauthorized"})
}

// resolve loads the active user named by the bearer token. The returned
// string explains a failure.
func resolve(c *gin.Context, issuer *auth.Issuer, users UserLookup) (*model.User, string) {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil, "missing or invalid Authorization header"
	}

	claims, err := issuer.Parse(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, "invalid token"
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, "invalid token"
	}

	u, err := users.GetUser(c.Request.Context(), id)
	if err != nil || !u.Active {
		return nil, "account not found or disabled"
	}
	return u, ""
}

// Authenticate requires a valid bearer token for an active user.
func Authenticate(issuer *auth.Issuer, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, reason := resolve(c, issuer, users)
		if u == nil {
			unauthorized(c, reason)
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// OptionalAuth sets the current user when a valid token is sent and lets
// anonymous requests through.
func OptionalAuth(issuer *auth.Issuer, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u, _ := resolve(c, issuer, users); u != nil {
			c.Set(userKey, u)
		}
		c.Next()
	}
}

// RequireRole lets through users whose role is at least min.
func RequireRole(min model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			unauthorized(c, "authentication required")
			return
		}
		if !u.Role.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role", "code": "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user set by Authenticate.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok
}
