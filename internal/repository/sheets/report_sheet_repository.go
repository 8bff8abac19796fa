package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/supto/pharmacy-buddy/internal/config"
	"github.com/supto/pharmacy-buddy/internal/domain/models"
)

const reportWriteRange = "DailyReports!A:I"

// Repository mirrors daily activity snapshots into a spreadsheet the owner
// already works in. Persistence of record is MongoDB; this is a convenience copy.
type Repository interface {
	AppendDailyReport(ctx context.Context, report models.DailyReport) error
}

// ReportSheetRepository implements Repository using the official Google Sheets API.
type ReportSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewReportSheetRepository builds a Google Sheets backed repository instance.
func NewReportSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &ReportSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendDailyReport appends one report row to the daily reports sheet.
func (r *ReportSheetRepository) AppendDailyReport(ctx context.Context, report models.DailyReport) error {
	values := []interface{}{
		report.Date.Format("2006-01-02"),
		report.SalesCount,
		report.Revenue,
		report.Profit,
		report.PurchasesCount,
		report.ItemsPurchased,
		report.PurchaseCost,
		report.LowStockCount,
		report.OutOfStockCount,
	}
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, reportWriteRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append report row: %w", err)
	}

	r.logger.Debug("daily report appended to sheet", zap.Time("date", report.Date))
	return nil
}
