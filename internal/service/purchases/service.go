// Package purchases records stock replenishments, the only path that
// increments a medicine's on-hand quantity.
package purchases

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/realtime"
)

// Ledger is the stock and purchase persistence required by the purchase flow.
type Ledger interface {
	GetMedicine(ctx context.Context, id primitive.ObjectID) (*models.Medicine, error)
	InsertPurchase(ctx context.Context, p *models.Purchase) error
	ApplyPurchase(ctx context.Context, id primitive.ObjectID, qty int64, unitCost float64, batchNumber string, expiryDate *time.Time, updatedBy primitive.ObjectID) (*models.Medicine, error)
}

// Notifier broadcasts state-change events to connected dashboards.
type Notifier interface {
	Publish(room, event string, payload any)
}

// Service records purchases.
type Service struct {
	ledger   Ledger
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService constructs the purchase service.
func NewService(ledger Ledger, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// RecordPurchase persists a purchase record and applies its side effects to
// the medicine: stock incremented by the purchased quantity, recorded unit
// cost overwritten, and batch/expiry updated when supplied.
func (s *Service) RecordPurchase(ctx context.Context, actor models.Actor, input models.PurchaseInput) (*models.Purchase, error) {
	if input.Quantity < 1 {
		return nil, apperr.Validationf("quantity must be at least 1")
	}
	if input.PurchasePrice < 0 {
		return nil, apperr.Validationf("purchase price must not be negative")
	}

	medicineID, err := primitive.ObjectIDFromHex(input.MedicineID)
	if err != nil {
		return nil, apperr.Validationf("invalid medicine id %q", input.MedicineID)
	}

	medicine, err := s.ledger.GetMedicine(ctx, medicineID)
	if err != nil {
		return nil, err
	}

	totalCost := decimal.NewFromFloat(input.PurchasePrice).
		Mul(decimal.NewFromInt(input.Quantity)).
		InexactFloat64()

	purchaseDate := s.now().UTC()
	if input.PurchaseDate != nil {
		purchaseDate = input.PurchaseDate.UTC()
	}

	purchase := &models.Purchase{
		MedicineID:    medicineID,
		MedicineName:  medicine.Name,
		Quantity:      input.Quantity,
		PurchasePrice: input.PurchasePrice,
		TotalCost:     totalCost,
		Supplier:      input.Supplier,
		InvoiceNumber: input.InvoiceNumber,
		BatchNumber:   input.BatchNumber,
		ExpiryDate:    input.ExpiryDate,
		PurchaseDate:  purchaseDate,
		Notes:         input.Notes,
		PurchasedBy:   actor.ID,
	}

	if err := s.ledger.InsertPurchase(ctx, purchase); err != nil {
		return nil, err
	}

	updated, err := s.ledger.ApplyPurchase(ctx, medicineID, input.Quantity, input.PurchasePrice, input.BatchNumber, input.ExpiryDate, actor.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase recorded",
		zap.String("medicine", medicine.Name),
		zap.Int64("quantity", input.Quantity),
		zap.Float64("totalCost", totalCost),
		zap.String("purchasedBy", actor.DisplayName))

	if s.notifier != nil {
		s.notifier.Publish(realtime.DashboardRoom, "purchase-created", purchase)
		s.notifier.Publish(realtime.DashboardRoom, "medicine-updated", updated)
		s.notifier.Publish(realtime.DashboardRoom, "stock-updated", map[string]any{
			"medicineId":    medicineID.Hex(),
			"stockQuantity": updated.StockQuantity,
		})
	}

	return purchase, nil
}
