package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/internal/repository/mongodb"
)

// pagination echoes the paging parameters and the unpaginated total.
type pagination struct {
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
	Pages int64 `json:"pages"`
	Limit int64 `json:"limit"`
}

func newPagination(total, page, limit int64) pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pagination{Total: total, Page: page, Pages: pages, Limit: limit}
}

func pageParams(c *gin.Context) (int64, int64) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	return page, limit
}

// respondError maps domain errors onto the user-facing envelope. The internal
// error text never leaks to clients; only curated messages do.
func respondError(c *gin.Context, err error, fallback string) {
	if ise, ok := apperr.IsInsufficientStock(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   ise.Error(),
			"medicine":  ise.MedicineName,
			"available": ise.Available,
		})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "requested record was not found"})
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, apperr.ErrDuplicatePendingRequest):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "a pending request for this medicine already exists"})
	case errors.Is(err, apperr.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "this status change is not allowed"})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "you are not allowed to perform this action"})
	case errors.Is(err, apperr.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
	case errors.Is(err, mongodb.ErrDuplicateInvoice):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "invoice number already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fallback})
	}
}
