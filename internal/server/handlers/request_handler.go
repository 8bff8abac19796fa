package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/server/middleware"
	"github.com/supto/pharmacy-buddy/internal/service/requests"
)

// RequestReader is the read side of the stock request collection.
type RequestReader interface {
	ListStockRequests(ctx context.Context, filter models.StockRequestFilter) ([]models.StockRequest, int64, error)
	GetStockRequest(ctx context.Context, id primitive.ObjectID) (*models.StockRequest, error)
	CountPendingRequests(ctx context.Context) (int64, error)
}

// RequestHandler serves the stock request endpoints.
type RequestHandler struct {
	svc    *requests.Service
	reader RequestReader
	logger *zap.Logger
}

// NewRequestHandler constructs the stock request HTTP adapter.
func NewRequestHandler(svc *requests.Service, reader RequestReader, logger *zap.Logger) *RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestHandler{svc: svc, reader: reader, logger: logger}
}

// List returns a filtered request page. Staff see only their own requests.
func (h *RequestHandler) List(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	page, limit := pageParams(c)

	filter := models.StockRequestFilter{Page: page, Limit: limit}
	if status := models.RequestStatus(c.Query("status")); status != "" {
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unknown request status"})
			return
		}
		filter.Status = status
	}
	if actor.Role == models.RoleStaff {
		filter.RequestedBy = actor.ID.Hex()
	}

	requestList, total, err := h.reader.ListStockRequests(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed listing stock requests", zap.Error(err))
		respondError(c, err, "could not load the stock request list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       requestList,
		"pagination": newPagination(total, page, limit),
	})
}

// Create opens a stock request for the calling user.
func (h *RequestHandler) Create(c *gin.Context) {
	var input models.StockRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "medicine, quantity and reason are required"})
		return
	}

	request, err := h.svc.Create(c.Request.Context(), middleware.ActorFrom(c), input)
	if err != nil {
		respondError(c, err, "could not create the stock request")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "stock request submitted",
		"data":    request,
	})
}

// Get returns one stock request. Staff can only view their own.
func (h *RequestHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request id"})
		return
	}

	request, err := h.reader.GetStockRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "could not load the stock request")
		return
	}

	actor := middleware.ActorFrom(c)
	if actor.Role == models.RoleStaff && request.RequestedBy != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "you are not allowed to view this request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": request})
}

type transitionBody struct {
	Status     models.RequestStatus `json:"status" binding:"required"`
	AdminNotes string               `json:"adminNotes"`
}

// Transition moves a request to a new status (admin only by routing).
func (h *RequestHandler) Transition(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request id"})
		return
	}

	var body transitionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "status is required"})
		return
	}

	request, err := h.svc.Transition(c.Request.Context(), middleware.ActorFrom(c), id, body.Status, body.AdminNotes)
	if err != nil {
		respondError(c, err, "could not update the stock request")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "stock request updated",
		"data":    request,
	})
}

// PendingCount reports how many requests await an admin decision.
func (h *RequestHandler) PendingCount(c *gin.Context) {
	count, err := h.reader.CountPendingRequests(c.Request.Context())
	if err != nil {
		h.logger.Error("failed counting pending requests", zap.Error(err))
		respondError(c, err, "could not count pending requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"pendingCount": count}})
}
