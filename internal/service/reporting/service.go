// Package reporting answers the dashboard's aggregate queries and produces the
// nightly activity snapshot.
package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/realtime"
	"github.com/supto/pharmacy-buddy/internal/repository/sheets"
)

// Store is the aggregation surface the dashboard needs from MongoDB.
type Store interface {
	MedicineStats(ctx context.Context) (models.MedicineStats, error)
	SaleTotalsBetween(ctx context.Context, start, end time.Time) (models.SaleTotals, error)
	MonthlySales(ctx context.Context, since time.Time) (map[string]models.MonthlyStat, error)
	MonthlyPurchases(ctx context.Context, since time.Time) (map[string]models.MonthlyStat, error)
	TopMedicines(ctx context.Context, since time.Time, limit int64) ([]models.TopMedicine, error)
	StaffPerformance(ctx context.Context, start, end *time.Time) ([]models.StaffPerformance, error)
	RecentSales(ctx context.Context, limit int64) ([]models.Sale, error)
	RecentPurchases(ctx context.Context, limit int64) ([]models.Purchase, error)
	CountPendingRequests(ctx context.Context) (int64, error)
	CountActiveStaff(ctx context.Context) (int64, error)
	LowStockMedicines(ctx context.Context) ([]models.Medicine, error)
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
	ListPurchases(ctx context.Context, filter models.PurchaseFilter) ([]models.Purchase, int64, models.PurchaseTotals, error)
}

// Notifier broadcasts state-change events to connected dashboards.
type Notifier interface {
	Publish(room, event string, payload any)
}

// Service computes dashboard views and snapshots.
type Service struct {
	store    Store
	mirror   sheets.Repository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new reporting service instance. mirror may be nil when
// the spreadsheet copy is disabled.
func NewService(store Store, mirror sheets.Repository, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		mirror:   mirror,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Summary assembles the admin landing-page aggregate: catalog stats, the last
// six months of trading, today's sales, and the pending-request badge.
func (s *Service) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	now := s.now().UTC()
	sixMonthsAgo := now.AddDate(0, -6, 0)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	todayEnd := todayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)

	medicineStats, err := s.store.MedicineStats(ctx)
	if err != nil {
		return nil, err
	}

	salesSummary, err := s.store.SaleTotalsBetween(ctx, sixMonthsAgo, now)
	if err != nil {
		return nil, err
	}

	_, _, purchaseTotals, err := s.store.ListPurchases(ctx, models.PurchaseFilter{
		StartDate: &sixMonthsAgo,
		EndDate:   &now,
		Limit:     1,
	})
	if err != nil {
		return nil, err
	}

	todaySales, err := s.store.SaleTotalsBetween(ctx, todayStart, todayEnd)
	if err != nil {
		return nil, err
	}

	pendingRequests, err := s.store.CountPendingRequests(ctx)
	if err != nil {
		return nil, err
	}

	staffCount, err := s.store.CountActiveStaff(ctx)
	if err != nil {
		return nil, err
	}

	return &models.DashboardSummary{
		Medicines:       medicineStats,
		Sales:           salesSummary,
		Purchases:       purchaseTotals,
		Today:           todaySales,
		PendingRequests: pendingRequests,
		StaffCount:      staffCount,
	}, nil
}

// MonthlyStats merges monthly sale and purchase aggregates into one zero-filled
// series covering the last six calendar months.
func (s *Service) MonthlyStats(ctx context.Context) ([]models.MonthlyStat, error) {
	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -5, 0)

	salesByMonth, err := s.store.MonthlySales(ctx, since)
	if err != nil {
		return nil, err
	}
	purchasesByMonth, err := s.store.MonthlyPurchases(ctx, since)
	if err != nil {
		return nil, err
	}

	stats := make([]models.MonthlyStat, 0, 6)
	for i := 5; i >= 0; i-- {
		month := now.AddDate(0, -i, 0)
		key := fmt.Sprintf("%04d-%02d", month.Year(), int(month.Month()))

		stat := models.MonthlyStat{Year: month.Year(), Month: int(month.Month())}
		if sale, ok := salesByMonth[key]; ok {
			stat.Sales = sale.Sales
			stat.Revenue = sale.Revenue
			stat.Profit = sale.Profit
			stat.ItemsSold = sale.ItemsSold
		}
		if purchase, ok := purchasesByMonth[key]; ok {
			stat.Purchases = purchase.Purchases
			stat.Cost = purchase.Cost
			stat.ItemsPurchased = purchase.ItemsPurchased
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

// TopMedicines ranks the best sellers over the last six months.
func (s *Service) TopMedicines(ctx context.Context, limit int64) ([]models.TopMedicine, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	since := s.now().UTC().AddDate(0, -6, 0)
	return s.store.TopMedicines(ctx, since, limit)
}

// StaffPerformance aggregates sales per operator over an optional window.
func (s *Service) StaffPerformance(ctx context.Context, start, end *time.Time) ([]models.StaffPerformance, error) {
	return s.store.StaffPerformance(ctx, start, end)
}

// RecentTransactions returns the latest sales and purchases side by side.
func (s *Service) RecentTransactions(ctx context.Context, limit int64) ([]models.Sale, []models.Purchase, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	salesList, err := s.store.RecentSales(ctx, limit)
	if err != nil {
		return nil, nil, err
	}
	purchasesList, err := s.store.RecentPurchases(ctx, limit)
	if err != nil {
		return nil, nil, err
	}
	return salesList, purchasesList, nil
}

// SnapshotDay computes yesterday's-close style snapshot for the given day,
// stores it, and mirrors it to the spreadsheet when configured.
func (s *Service) SnapshotDay(ctx context.Context, day time.Time) (*models.DailyReport, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)

	saleTotals, err := s.store.SaleTotalsBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	_, purchaseCount, purchaseTotals, err := s.store.ListPurchases(ctx, models.PurchaseFilter{
		StartDate: &dayStart,
		EndDate:   &dayEnd,
		Limit:     1,
	})
	if err != nil {
		return nil, err
	}

	stats, err := s.store.MedicineStats(ctx)
	if err != nil {
		return nil, err
	}

	report := models.DailyReport{
		Date:            dayStart,
		SalesCount:      saleTotals.TotalSales,
		Revenue:         saleTotals.TotalAmount,
		Profit:          saleTotals.TotalProfit,
		PurchasesCount:  purchaseCount,
		ItemsPurchased:  purchaseTotals.TotalQuantity,
		PurchaseCost:    purchaseTotals.TotalCost,
		LowStockCount:   stats.LowStockCount,
		OutOfStockCount: stats.OutOfStockCount,
	}

	if err := s.store.SaveDailyReport(ctx, report); err != nil {
		return nil, err
	}

	if s.mirror != nil {
		if err := s.mirror.AppendDailyReport(ctx, report); err != nil {
			s.logger.Warn("failed mirroring daily report to sheet", zap.Error(err))
		}
	}

	if s.notifier != nil {
		s.notifier.Publish(realtime.DashboardRoom, "daily-report", report)
	}

	return &report, nil
}

// LowStockSweep publishes the current low-stock list to the dashboard.
func (s *Service) LowStockSweep(ctx context.Context) (int, error) {
	medicines, err := s.store.LowStockMedicines(ctx)
	if err != nil {
		return 0, err
	}
	if len(medicines) == 0 {
		return 0, nil
	}

	if s.notifier != nil {
		s.notifier.Publish(realtime.DashboardRoom, "low-stock-alert", map[string]any{
			"count":     len(medicines),
			"medicines": medicines,
		})
	}

	s.logger.Info("low stock sweep", zap.Int("count", len(medicines)))
	return len(medicines), nil
}
