// Package handlers adapts HTTP requests onto the core services and translates
// their results into the response envelope clients expect.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/server/middleware"
)

// AuthHandler serves the session endpoints. Authentication itself happens in
// the middleware; these endpoints echo the resolved user back.
type AuthHandler struct {
	logger *zap.Logger
}

// NewAuthHandler constructs the auth HTTP adapter.
func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{logger: logger}
}

// Login confirms a first or returning sign-in; the middleware has already
// upserted the account.
func (h *AuthHandler) Login(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "login required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "logged in successfully",
		"user": gin.H{
			"id":          user.ID,
			"email":       user.Email,
			"displayName": user.DisplayName,
			"photoURL":    user.PhotoURL,
			"role":        user.Role,
		},
	})
}

// Me returns the current user's full profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "login required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":          user.ID,
			"email":       user.Email,
			"displayName": user.DisplayName,
			"photoURL":    user.PhotoURL,
			"role":        user.Role,
			"isActive":    user.IsActive,
			"lastLogin":   user.LastLogin,
		},
	})
}

// Verify reports token validity for client-side session checks.
func (h *AuthHandler) Verify(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "valid": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"valid":   true,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}
