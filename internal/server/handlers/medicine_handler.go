package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/server/middleware"
	"github.com/supto/pharmacy-buddy/internal/service/inventory"
)

// MedicineHandler serves the catalog endpoints.
type MedicineHandler struct {
	svc    *inventory.Service
	logger *zap.Logger
}

// NewMedicineHandler constructs the catalog HTTP adapter.
func NewMedicineHandler(svc *inventory.Service, logger *zap.Logger) *MedicineHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MedicineHandler{svc: svc, logger: logger}
}

// List returns a filtered catalog page.
func (h *MedicineHandler) List(c *gin.Context) {
	page, limit := pageParams(c)
	filter := models.MedicineFilter{
		Search:     c.Query("search"),
		Category:   c.Query("category"),
		LowStock:   c.Query("lowStock") == "true",
		OutOfStock: c.Query("outOfStock") == "true",
		SortBy:     c.DefaultQuery("sortBy", "name"),
		SortOrder:  c.DefaultQuery("sortOrder", "asc"),
		Page:       page,
		Limit:      limit,
	}

	medicines, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed listing medicines", zap.Error(err))
		respondError(c, err, "could not load the medicine list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       medicines,
		"pagination": newPagination(total, page, limit),
	})
}

// Get returns one catalog entry.
func (h *MedicineHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid medicine id"})
		return
	}

	medicine, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "could not load the medicine")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": medicine})
}

// Create adds a catalog entry.
func (h *MedicineHandler) Create(c *gin.Context) {
	var input inventory.MedicineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	medicine, err := h.svc.Create(c.Request.Context(), middleware.ActorFrom(c), input)
	if err != nil {
		h.logger.Error("failed creating medicine", zap.Error(err))
		respondError(c, err, "could not add the medicine")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "medicine added successfully",
		"data":    medicine,
	})
}

// Update applies field changes to a catalog entry.
func (h *MedicineHandler) Update(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid medicine id"})
		return
	}

	var fields bson.M
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}
	// Clients may not rewrite identity or audit fields.
	for _, key := range []string{"_id", "id", "createdBy", "createdAt", "updatedAt"} {
		delete(fields, key)
	}

	medicine, err := h.svc.Update(c.Request.Context(), middleware.ActorFrom(c), id, fields)
	if err != nil {
		respondError(c, err, "could not update the medicine")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "medicine updated successfully",
		"data":    medicine,
	})
}

// Delete soft-deletes a catalog entry.
func (h *MedicineHandler) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid medicine id"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err, "could not delete the medicine")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "medicine deleted successfully"})
}

// Categories lists every category in active use.
func (h *MedicineHandler) Categories(c *gin.Context) {
	categories, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err, "could not load categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": categories})
}

// Import bulk-loads catalog entries from an uploaded spreadsheet.
func (h *MedicineHandler) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "spreadsheet file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.svc.ImportSpreadsheet(c.Request.Context(), middleware.ActorFrom(c), file)
	if err != nil {
		h.logger.Error("failed importing medicines", zap.Error(err))
		respondError(c, err, "could not import the spreadsheet")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "import finished",
		"data":    result,
	})
}
