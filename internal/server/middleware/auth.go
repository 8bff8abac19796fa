// Package middleware carries the request-scoped concerns shared by every
// route: authentication and role gating.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/service/auth"
)

const userKey = "currentUser"

// Authenticate verifies the bearer token and attaches the resolved user to the
// request context. Every protected route sits behind this.
func Authenticate(svc *auth.Service, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "authorization token not provided",
			})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		user, err := svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			status := http.StatusUnauthorized
			message := "invalid or expired token"
			if errors.Is(err, apperr.ErrForbidden) {
				status = http.StatusForbidden
				message = "your account has been disabled"
			}
			logger.Warn("authentication failed", zap.Error(err))
			c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireRoles rejects requests whose user is outside the allowed-role set.
func RequireRoles(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := UserFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "login required",
			})
			return
		}

		if err := auth.Authorize(models.ActorFromUser(user), allowed...); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "you are not allowed to perform this action",
			})
			return
		}

		c.Next()
	}
}

// UserFrom returns the authenticated user attached to the request.
func UserFrom(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// ActorFrom returns the acting identity for the request.
func ActorFrom(c *gin.Context) models.Actor {
	if user, ok := UserFrom(c); ok {
		return models.ActorFromUser(user)
	}
	return models.Actor{}
}
