package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/service/reporting"
)

// DashboardHandler serves the admin dashboard aggregates.
type DashboardHandler struct {
	svc    *reporting.Service
	logger *zap.Logger
}

// NewDashboardHandler constructs the dashboard HTTP adapter.
func NewDashboardHandler(svc *reporting.Service, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{svc: svc, logger: logger}
}

// Summary returns the headline dashboard numbers.
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		h.logger.Error("failed building dashboard summary", zap.Error(err))
		respondError(c, err, "could not build the dashboard summary")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

// MonthlyStats returns the six-month sales/purchases series.
func (h *DashboardHandler) MonthlyStats(c *gin.Context) {
	stats, err := h.svc.MonthlyStats(c.Request.Context())
	if err != nil {
		h.logger.Error("failed building monthly stats", zap.Error(err))
		respondError(c, err, "could not build the monthly statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// TopMedicines returns the best sellers by quantity.
func (h *DashboardHandler) TopMedicines(c *gin.Context) {
	limit := limitParam(c, 5)

	top, err := h.svc.TopMedicines(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed building top medicines", zap.Error(err))
		respondError(c, err, "could not build the top medicines list")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": top})
}

// StaffPerformance returns per-seller sale totals.
func (h *DashboardHandler) StaffPerformance(c *gin.Context) {
	var start, end *time.Time
	if value, ok := parseTimeQuery(c, "startDate"); ok {
		start = &value
	}
	if value, ok := parseTimeQuery(c, "endDate"); ok {
		end = &value
	}

	performance, err := h.svc.StaffPerformance(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("failed building staff performance", zap.Error(err))
		respondError(c, err, "could not build the staff performance report")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": performance})
}

// RecentTransactions returns the latest sales and purchases side by side.
func (h *DashboardHandler) RecentTransactions(c *gin.Context) {
	limit := limitParam(c, 10)

	recentSales, recentPurchases, err := h.svc.RecentTransactions(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed loading recent transactions", zap.Error(err))
		respondError(c, err, "could not load recent transactions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"sales":     recentSales,
			"purchases": recentPurchases,
		},
	})
}

func limitParam(c *gin.Context, fallback int64) int64 {
	value, err := strconv.ParseInt(c.DefaultQuery("limit", ""), 10, 64)
	if err != nil || value < 1 || value > 100 {
		return fallback
	}
	return value
}
