package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/server/middleware"
	"github.com/supto/pharmacy-buddy/internal/service/purchases"
)

// PurchaseReader is the read side of the purchases collection.
type PurchaseReader interface {
	ListPurchases(ctx context.Context, filter models.PurchaseFilter) ([]models.Purchase, int64, models.PurchaseTotals, error)
	GetPurchase(ctx context.Context, id primitive.ObjectID) (*models.Purchase, error)
}

// PurchaseHandler serves the stock purchase endpoints.
type PurchaseHandler struct {
	svc    *purchases.Service
	reader PurchaseReader
	logger *zap.Logger
}

// NewPurchaseHandler constructs the purchases HTTP adapter.
func NewPurchaseHandler(svc *purchases.Service, reader PurchaseReader, logger *zap.Logger) *PurchaseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseHandler{svc: svc, reader: reader, logger: logger}
}

// List returns a filtered purchase page with aggregate totals.
func (h *PurchaseHandler) List(c *gin.Context) {
	page, limit := pageParams(c)

	filter := models.PurchaseFilter{Page: page, Limit: limit}
	if start, ok := parseTimeQuery(c, "startDate"); ok {
		filter.StartDate = &start
	}
	if end, ok := parseTimeQuery(c, "endDate"); ok {
		filter.EndDate = &end
	}
	if medicine := c.Query("medicine"); medicine != "" {
		filter.MedicineID = medicine
	}

	purchaseList, total, totals, err := h.reader.ListPurchases(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed listing purchases", zap.Error(err))
		respondError(c, err, "could not load the purchase list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       purchaseList,
		"totals":     totals,
		"pagination": newPagination(total, page, limit),
	})
}

// Create records a purchase and restocks the medicine.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var input models.PurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "medicine, quantity and purchase price are required"})
		return
	}

	purchase, err := h.svc.RecordPurchase(c.Request.Context(), middleware.ActorFrom(c), input)
	if err != nil {
		respondError(c, err, "could not record the purchase")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "purchase recorded successfully",
		"data":    purchase,
	})
}

// Get returns one purchase record.
func (h *PurchaseHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid purchase id"})
		return
	}

	purchase, err := h.reader.GetPurchase(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "could not load the purchase")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": purchase})
}
