package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/server/middleware"
	"github.com/supto/pharmacy-buddy/internal/service/sales"
)

// SaleReader is the read side of the sales collection.
type SaleReader interface {
	ListSales(ctx context.Context, filter models.SaleFilter) ([]models.Sale, int64, models.SaleTotals, error)
	GetSale(ctx context.Context, id primitive.ObjectID) (*models.Sale, error)
}

// SaleHandler serves the point-of-sale endpoints.
type SaleHandler struct {
	svc    *sales.Service
	reader SaleReader
	logger *zap.Logger
}

// NewSaleHandler constructs the sales HTTP adapter.
func NewSaleHandler(svc *sales.Service, reader SaleReader, logger *zap.Logger) *SaleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleHandler{svc: svc, reader: reader, logger: logger}
}

// List returns a filtered sale page with aggregate totals. Staff see only
// their own sales; admins and viewers see everything and may filter by seller.
func (h *SaleHandler) List(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	page, limit := pageParams(c)

	filter := models.SaleFilter{Page: page, Limit: limit}
	if start, ok := parseTimeQuery(c, "startDate"); ok {
		filter.StartDate = &start
	}
	if end, ok := parseTimeQuery(c, "endDate"); ok {
		filter.EndDate = &end
	}

	if actor.Role == models.RoleStaff {
		filter.SoldBy = actor.ID.Hex()
	} else if soldBy := c.Query("soldBy"); soldBy != "" {
		filter.SoldBy = soldBy
	}

	salesList, total, totals, err := h.reader.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed listing sales", zap.Error(err))
		respondError(c, err, "could not load the sales list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       salesList,
		"totals":     totals,
		"pagination": newPagination(total, page, limit),
	})
}

// Create runs the sale flow.
func (h *SaleHandler) Create(c *gin.Context) {
	var req models.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "select at least one medicine"})
		return
	}

	sale, err := h.svc.RecordSale(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		respondError(c, err, "could not complete the sale")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "sale completed successfully",
		"data":    sale,
	})
}

// Get returns one sale. Staff can only view their own sales.
func (h *SaleHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid sale id"})
		return
	}

	sale, err := h.reader.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "could not load the sale")
		return
	}

	actor := middleware.ActorFrom(c)
	if actor.Role == models.RoleStaff && sale.SoldBy != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "you are not allowed to view this sale"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": sale})
}

// ByStaff returns one staff member's sales (admin only by routing).
func (h *SaleHandler) ByStaff(c *gin.Context) {
	page, limit := pageParams(c)
	filter := models.SaleFilter{
		SoldBy: c.Param("staffId"),
		Page:   page,
		Limit:  limit,
	}
	if start, ok := parseTimeQuery(c, "startDate"); ok {
		filter.StartDate = &start
	}
	if end, ok := parseTimeQuery(c, "endDate"); ok {
		filter.EndDate = &end
	}

	salesList, total, totals, err := h.reader.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed listing staff sales", zap.Error(err))
		respondError(c, err, "could not load the staff sales list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       salesList,
		"totals":     totals,
		"pagination": newPagination(total, page, limit),
	})
}

func parseTimeQuery(c *gin.Context, key string) (time.Time, bool) {
	value := c.Query(key)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
