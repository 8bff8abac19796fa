package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/internal/repository/mongodb"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func runRespondError(err error) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, err, "something went wrong")
	return w
}

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", apperr.NotFoundf("medicine gone"), http.StatusNotFound},
		{"validation", apperr.Validationf("bad input"), http.StatusBadRequest},
		{"duplicate pending", apperr.ErrDuplicatePendingRequest, http.StatusConflict},
		{"invalid transition", apperr.ErrInvalidTransition, http.StatusConflict},
		{"forbidden", apperr.ErrForbidden, http.StatusForbidden},
		{"unauthorized", apperr.ErrUnauthorized, http.StatusUnauthorized},
		{"duplicate invoice", mongodb.ErrDuplicateInvoice, http.StatusConflict},
		{"unknown", errors.New("mongo exploded"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := runRespondError(tc.err)
		if w.Code != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.name, tc.status, w.Code)
		}
	}
}

func TestRespondError_InternalTextNeverLeaks(t *testing.T) {
	w := runRespondError(errors.New("connection refused 10.0.0.5:27017"))

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed decoding body: %v", err)
	}
	if body["message"] != "something went wrong" {
		t.Errorf("expected fallback message, got %q", body["message"])
	}
}

func TestRespondError_InsufficientStockPayload(t *testing.T) {
	w := runRespondError(&apperr.InsufficientStockError{
		MedicineName: "Napa",
		Requested:    10,
		Available:    2,
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed decoding body: %v", err)
	}
	if body["medicine"] != "Napa" {
		t.Errorf("expected medicine Napa, got %v", body["medicine"])
	}
	if body["available"] != float64(2) {
		t.Errorf("expected available 2, got %v", body["available"])
	}
}

func TestNewPagination(t *testing.T) {
	p := newPagination(101, 2, 50)
	if p.Pages != 3 {
		t.Errorf("expected 3 pages for 101 rows at 50 per page, got %d", p.Pages)
	}
	if p.Page != 2 || p.Limit != 50 || p.Total != 101 {
		t.Errorf("unexpected pagination %+v", p)
	}

	p = newPagination(100, 0, 0)
	if p.Page != 1 || p.Limit != 50 {
		t.Errorf("expected sanitized paging defaults, got %+v", p)
	}
	if p.Pages != 2 {
		t.Errorf("expected 2 pages, got %d", p.Pages)
	}
}
