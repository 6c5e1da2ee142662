package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/opsdesk/opsdesk-api/internal/constants"
	apierrors "github.com/opsdesk/opsdesk-api/internal/errors"
)

// RequireAuth rejects requests without an authenticated session. On success
// the user ID is copied into the gin context so handlers never touch the
// session store directly.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := sessions.Default(c).Get(constants.ContextKeyUserID)
		if userID == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context. Session stores
// round-trip the value through gob, so the integer type is not guaranteed.
func GetUserID(c *gin.Context) (uint64, bool) {
	raw, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := raw.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	}
	return 0, false
}
