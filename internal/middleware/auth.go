package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"gorm.io/gorm"
)

// RequireAuth checks the bearer access token and resolves it to an actor.
// The user row is reloaded so a staff flag revoked after issue takes effect.
func RequireAuth(tokens *services.TokenService, store *repository.Store, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apierrors.Unauthorized(c, "Authentication credentials were not provided")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			apierrors.Unauthorized(c, "Invalid Authorization header format")
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(parts[1]), constants.TokenTypeAccess)
		if err != nil {
			log.WithError(err).Debug("Token validation failed")
			apierrors.Unauthorized(c, "Given token not valid for any token type")
			return
		}

		user, err := store.WithContext(c.Request.Context()).Users.FindByID(claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.Unauthorized(c, "User not found")
				return
			}
			log.WithError(err).Error("Failed to load authenticated user")
			apierrors.InternalError(c, "")
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyIsStaff, user.IsStaff)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetActor returns the authenticated caller set by RequireAuth.
func GetActor(c *gin.Context) (authz.Actor, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		return authz.Actor{}, false
	}
	return authz.Actor{ID: userID, IsStaff: c.GetBool(constants.ContextKeyIsStaff)}, true
}
