package inventory

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/realtime"
)

// expected column order of the import sheet; the first row is a header.
// name | genericName | power | unit | unitsPerPackage | purchasePrice |
// sellingPrice | stockQuantity | lowStockThreshold | manufacturer | category |
// expiryDate | batchNumber
const importColumns = 13

// ImportResult summarizes a bulk import run.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportSpreadsheet parses an uploaded .xlsx workbook and inserts every valid
// row as a catalog entry. Invalid rows are skipped and reported, they do not
// abort the rest of the file.
func (s *Service) ImportSpreadsheet(ctx context.Context, actor models.Actor, r io.Reader) (*ImportResult, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validationf("unreadable spreadsheet: %v", err)
	}
	defer func() { _ = workbook.Close() }()

	sheetName := workbook.GetSheetName(0)
	rows, err := workbook.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	if len(rows) < 2 {
		return nil, apperr.Validationf("spreadsheet has no data rows")
	}

	result := &ImportResult{}
	medicines := make([]models.Medicine, 0, len(rows)-1)

	for i, row := range rows[1:] {
		medicine, err := medicineFromRow(row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		medicine.CreatedBy = actor.ID
		medicines = append(medicines, *medicine)
	}

	inserted, err := s.catalog.InsertMedicines(ctx, medicines)
	result.Imported = inserted
	if err != nil {
		return result, err
	}

	s.logger.Info("medicines imported",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.String("importedBy", actor.DisplayName))

	if s.notifier != nil && result.Imported > 0 {
		s.notifier.Publish(realtime.DashboardRoom, "medicines-imported", result)
	}

	return result, nil
}

func medicineFromRow(row []string) (*models.Medicine, error) {
	cells := make([]string, importColumns)
	for i := 0; i < importColumns && i < len(row); i++ {
		cells[i] = strings.TrimSpace(row[i])
	}

	if cells[0] == "" {
		return nil, fmt.Errorf("name is required")
	}
	if cells[2] == "" || cells[3] == "" {
		return nil, fmt.Errorf("power and unit are required")
	}

	purchasePrice, err := parseFloatCell(cells[5], "purchasePrice")
	if err != nil {
		return nil, err
	}
	sellingPrice, err := parseFloatCell(cells[6], "sellingPrice")
	if err != nil {
		return nil, err
	}

	stockQuantity, err := parseIntCell(cells[7], "stockQuantity", 0)
	if err != nil {
		return nil, err
	}
	if stockQuantity < 0 {
		return nil, fmt.Errorf("stockQuantity must not be negative")
	}

	unitsPerPackage, err := parseIntCell(cells[4], "unitsPerPackage", 1)
	if err != nil {
		return nil, err
	}
	lowStockThreshold, err := parseIntCell(cells[8], "lowStockThreshold", 10)
	if err != nil {
		return nil, err
	}

	m := &models.Medicine{
		Name:              cells[0],
		GenericName:       cells[1],
		Power:             cells[2],
		Unit:              cells[3],
		UnitsPerPackage:   int(unitsPerPackage),
		PurchasePrice:     purchasePrice,
		SellingPrice:      sellingPrice,
		StockQuantity:     stockQuantity,
		LowStockThreshold: lowStockThreshold,
		Manufacturer:      cells[9],
		Category:          cells[10],
		BatchNumber:       cells[12],
		IsActive:          true,
	}

	if cells[11] != "" {
		expiry, err := parseDate(cells[11])
		if err != nil {
			return nil, fmt.Errorf("invalid expiryDate %q", cells[11])
		}
		m.ExpiryDate = &expiry
	}

	return m, nil
}

func parseFloatCell(cell, field string) (float64, error) {
	if cell == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid %s %q", field, cell)
	}
	return value, nil
}

func parseIntCell(cell, field string, fallback int64) (int64, error) {
	if cell == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", field, cell)
	}
	return value, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
