package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/opsdesk/opsdesk-api/internal/constants"
	apierrors "github.com/opsdesk/opsdesk-api/internal/errors"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

// RequireBusinessAccess resolves the caller's membership profile and stores
// it in context. Tenant scope always comes from the profile, never from the
// request.
func RequireBusinessAccess(businessRepo repository.BusinessRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		profile, err := businessRepo.FindProfileByUserID(userID)
		if err != nil {
			apierrors.Forbidden(c, "You are not a member of any business")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProfile, *profile)
		c.Next()
	}
}

// RequireManager allows only owners and admins through
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := GetProfile(c)
		if !ok {
			apierrors.Forbidden(c, "Business access required")
			c.Abort()
			return
		}

		if !profile.Role.CanManageMembers() {
			apierrors.Forbidden(c, "Only owners and admins can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireWriter blocks viewers from mutating endpoints
func RequireWriter() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := GetProfile(c)
		if !ok {
			apierrors.Forbidden(c, "Business access required")
			c.Abort()
			return
		}

		if profile.Role == models.RoleViewer {
			apierrors.Forbidden(c, "Viewers cannot make changes")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetProfile retrieves the caller's membership profile from context
func GetProfile(c *gin.Context) (models.Profile, bool) {
	value, exists := c.Get(constants.ContextKeyProfile)
	if !exists {
		return models.Profile{}, false
	}

	profile, ok := value.(models.Profile)
	return profile, ok
}
