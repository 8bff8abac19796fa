package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/server/middleware"
	"github.com/supto/pharmacy-buddy/internal/service/auth"
)

// UserHandler serves the admin user-management endpoints.
type UserHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

// NewUserHandler constructs the users HTTP adapter.
func NewUserHandler(svc *auth.Service, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{svc: svc, logger: logger}
}

// List returns a filtered user page.
func (h *UserHandler) List(c *gin.Context) {
	page, limit := pageParams(c)

	var role models.Role
	if value := models.Role(c.Query("role")); value != "" {
		if !value.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unknown role"})
			return
		}
		role = value
	}

	var isActive *bool
	if value := c.Query("isActive"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "isActive must be true or false"})
			return
		}
		isActive = &parsed
	}

	users, total, err := h.svc.ListUsers(c.Request.Context(), role, isActive, page, limit)
	if err != nil {
		h.logger.Error("failed listing users", zap.Error(err))
		respondError(c, err, "could not load the user list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       users,
		"pagination": newPagination(total, page, limit),
	})
}

// Get returns one user.
func (h *UserHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid user id"})
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "could not load the user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

type roleBody struct {
	Role models.Role `json:"role" binding:"required"`
}

// UpdateRole changes a user's role.
func (h *UserHandler) UpdateRole(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid user id"})
		return
	}

	var body roleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "role is required"})
		return
	}

	user, err := h.svc.UpdateRole(c.Request.Context(), middleware.ActorFrom(c), id, body.Role)
	if err != nil {
		respondError(c, err, "could not update the user role")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "user role updated",
		"data":    user,
	})
}

type statusBody struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// UpdateStatus activates or deactivates a user account.
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid user id"})
		return
	}

	var body statusBody
	if err := c.ShouldBindJSON(&body); err != nil || body.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "isActive is required"})
		return
	}

	user, err := h.svc.UpdateStatus(c.Request.Context(), middleware.ActorFrom(c), id, *body.IsActive)
	if err != nil {
		respondError(c, err, "could not update the user status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "user status updated",
		"data":    user,
	})
}

// StaffList returns all active staff for dropdowns and filters.
func (h *UserHandler) StaffList(c *gin.Context) {
	staff, err := h.svc.StaffList(c.Request.Context())
	if err != nil {
		h.logger.Error("failed listing staff", zap.Error(err))
		respondError(c, err, "could not load the staff list")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": staff})
}
