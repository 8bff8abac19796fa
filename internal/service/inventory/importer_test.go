package inventory

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
)

func buildWorkbook(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()

	workbook := excelize.NewFile()
	defer func() { _ = workbook.Close() }()

	sheet := workbook.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("failed building cell name: %v", err)
		}
		if err := workbook.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("failed writing row: %v", err)
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed serializing workbook: %v", err)
	}
	return buf
}

var importHeader = []string{
	"name", "genericName", "power", "unit", "unitsPerPackage", "purchasePrice",
	"sellingPrice", "stockQuantity", "lowStockThreshold", "manufacturer",
	"category", "expiryDate", "batchNumber",
}

func TestImportSpreadsheet(t *testing.T) {
	catalog := newFakeCatalog()
	notifier := &fakeNotifier{}
	svc := NewService(catalog, notifier, nil)

	buf := buildWorkbook(t, [][]string{
		importHeader,
		{"Napa", "Paracetamol", "500mg", "tablet", "10", "0.8", "1.2", "200", "20", "Beximco", "Analgesic", "2027-03-15", "B-77"},
		{"Seclo", "Omeprazole", "20mg", "capsule", "14", "4", "7", "100", "", "Square", "Antiulcerant", "", ""},
		{"", "", "500mg", "tablet", "", "1", "2", "", "", "", "", "", ""},
	})

	result, err := svc.ImportSpreadsheet(context.Background(), adminActor(), buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Imported != 2 {
		t.Errorf("expected 2 imported rows, got %d", result.Imported)
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped row, got %d", result.Skipped)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "row 4") {
		t.Errorf("expected error for row 4, got %v", result.Errors)
	}
	if len(catalog.medicines) != 2 {
		t.Errorf("expected 2 persisted medicines, got %d", len(catalog.medicines))
	}
	if len(notifier.events) != 1 || notifier.events[0] != "medicines-imported" {
		t.Errorf("expected medicines-imported event, got %v", notifier.events)
	}
}

func TestImportSpreadsheet_HeaderOnly(t *testing.T) {
	svc := NewService(newFakeCatalog(), nil, nil)

	buf := buildWorkbook(t, [][]string{importHeader})

	_, err := svc.ImportSpreadsheet(context.Background(), adminActor(), buf)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for empty sheet, got %v", err)
	}
}

func TestImportSpreadsheet_NotASpreadsheet(t *testing.T) {
	svc := NewService(newFakeCatalog(), nil, nil)

	_, err := svc.ImportSpreadsheet(context.Background(), adminActor(), strings.NewReader("name,power\nNapa,500mg"))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for non-xlsx input, got %v", err)
	}
}
