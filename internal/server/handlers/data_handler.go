package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/realtime"
	"github.com/supto/pharmacy-buddy/internal/server/middleware"
)

// DataStore is the bulk export and erase surface of the store.
type DataStore interface {
	ExportMedicines(ctx context.Context) ([]models.Medicine, error)
	ExportSales(ctx context.Context) ([]models.Sale, error)
	ExportPurchases(ctx context.Context) ([]models.Purchase, error)
	ExportStockRequests(ctx context.Context) ([]models.StockRequest, error)
	EraseAll(ctx context.Context) error
}

// DataNotifier pushes data-administration events to connected dashboards.
type DataNotifier interface {
	Publish(room, event string, payload interface{})
}

// DataHandler serves the admin data export and erase endpoints.
type DataHandler struct {
	store    DataStore
	notifier DataNotifier
	logger   *zap.Logger
}

// NewDataHandler constructs the data administration HTTP adapter.
func NewDataHandler(store DataStore, notifier DataNotifier, logger *zap.Logger) *DataHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataHandler{store: store, notifier: notifier, logger: logger}
}

// Export dumps one collection as JSON. The type query parameter picks the
// collection: medicines, sales, purchases or requests.
func (h *DataHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		data interface{}
		err  error
	)
	kind := c.DefaultQuery("type", "medicines")
	switch kind {
	case "medicines":
		data, err = h.store.ExportMedicines(ctx)
	case "sales":
		data, err = h.store.ExportSales(ctx)
	case "purchases":
		data, err = h.store.ExportPurchases(ctx)
	case "requests":
		data, err = h.store.ExportStockRequests(ctx)
	case "all":
		data, err = h.exportAll(ctx)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "type must be one of medicines, sales, purchases, requests, all"})
		return
	}
	if err != nil {
		h.logger.Error("failed exporting data", zap.String("type", kind), zap.Error(err))
		respondError(c, err, "could not export the requested data")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       data,
		"exportType": kind,
		"exportedAt": time.Now().UTC(),
	})
}

func (h *DataHandler) exportAll(ctx context.Context) (gin.H, error) {
	medicines, err := h.store.ExportMedicines(ctx)
	if err != nil {
		return nil, err
	}
	salesDump, err := h.store.ExportSales(ctx)
	if err != nil {
		return nil, err
	}
	purchasesDump, err := h.store.ExportPurchases(ctx)
	if err != nil {
		return nil, err
	}
	requestsDump, err := h.store.ExportStockRequests(ctx)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"medicines": medicines,
		"sales":     salesDump,
		"purchases": purchasesDump,
		"requests":  requestsDump,
	}, nil
}

// Erase wipes the operational collections. Users and daily reports survive.
func (h *DataHandler) Erase(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	if err := h.store.EraseAll(c.Request.Context()); err != nil {
		h.logger.Error("failed erasing data", zap.Error(err))
		respondError(c, err, "could not erase the data")
		return
	}

	h.logger.Warn("all operational data erased", zap.String("by", actor.ID.Hex()))
	if h.notifier != nil {
		h.notifier.Publish(realtime.DashboardRoom, "data-erased", gin.H{"erasedBy": actor.DisplayName})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "all operational data erased"})
}
