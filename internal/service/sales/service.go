// Package sales implements the sale flow: validate a requested basket against
// on-hand stock, decrement atomically, and persist an immutable sale record.
package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/realtime"
	"github.com/supto/pharmacy-buddy/internal/repository/mongodb"
)

// Ledger is the stock and sale persistence required by the sale flow.
type Ledger interface {
	GetMedicine(ctx context.Context, id primitive.ObjectID) (*models.Medicine, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int64) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int64) error
	InsertSale(ctx context.Context, sale *models.Sale) error
}

// Notifier broadcasts state-change events to connected dashboards.
type Notifier interface {
	Publish(room, event string, payload any)
}

// Service builds and commits sales.
type Service struct {
	ledger   Ledger
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	invoice  func(time.Time) string
}

// NewService constructs the sale service.
func NewService(ledger Ledger, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		invoice:  newInvoiceNumber,
	}
}

// RecordSale validates every requested line, then commits every stock
// decrement, then persists the sale. Validation and commit are separate
// passes: a rejected request mutates nothing. If a concurrent writer drains
// stock between the passes, the conditional decrement fails, every decrement
// already applied for this request is compensated, and the whole request is
// rejected with insufficient stock.
func (s *Service) RecordSale(ctx context.Context, actor models.Actor, req models.SaleRequest) (*models.Sale, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// Validation pass: resolve every line before touching stock.
	lines := make([]models.SaleItem, 0, len(req.Items))
	for _, line := range req.Items {
		medicineID, err := primitive.ObjectIDFromHex(line.MedicineID)
		if err != nil {
			return nil, apperr.Validationf("invalid medicine id %q", line.MedicineID)
		}

		medicine, err := s.ledger.GetMedicine(ctx, medicineID)
		if err != nil {
			return nil, err
		}
		if medicine.StockQuantity < line.Quantity {
			return nil, &apperr.InsufficientStockError{
				MedicineName: medicine.Name,
				Requested:    line.Quantity,
				Available:    medicine.StockQuantity,
			}
		}

		lines = append(lines, buildItem(medicine, line.Quantity))
	}

	// Commit pass: decrement line by line; compensate on a lost race.
	for i, item := range lines {
		if err := s.ledger.DecrementStock(ctx, item.MedicineID, item.Quantity); err != nil {
			s.rollback(ctx, lines[:i])
			if conflicted(err) {
				medicine, lookupErr := s.ledger.GetMedicine(ctx, item.MedicineID)
				available := int64(0)
				if lookupErr == nil {
					available = medicine.StockQuantity
				}
				return nil, &apperr.InsufficientStockError{
					MedicineName: item.MedicineName,
					Requested:    item.Quantity,
					Available:    available,
				}
			}
			return nil, err
		}
	}

	sale := s.buildSale(actor, req, lines)

	if err := s.ledger.InsertSale(ctx, sale); err != nil {
		if errors.Is(err, mongodb.ErrDuplicateInvoice) {
			sale.InvoiceNumber = s.invoice(s.now().UTC())
			err = s.ledger.InsertSale(ctx, sale)
		}
		if err != nil {
			s.rollback(ctx, lines)
			return nil, fmt.Errorf("persist sale: %w", err)
		}
	}

	s.logger.Info("sale recorded",
		zap.String("invoice", sale.InvoiceNumber),
		zap.Int("lines", len(sale.Items)),
		zap.Float64("finalAmount", sale.FinalAmount),
		zap.String("soldBy", actor.DisplayName))

	s.publish(sale)
	return sale, nil
}

func validateRequest(req models.SaleRequest) error {
	if len(req.Items) == 0 {
		return apperr.Validationf("sale must contain at least one item")
	}
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return apperr.Validationf("quantity must be at least 1")
		}
	}
	if req.Discount < 0 {
		return apperr.Validationf("discount must not be negative")
	}
	if req.ExtraCharge < 0 {
		return apperr.Validationf("extra charge must not be negative")
	}
	return nil
}

// buildItem freezes the medicine's current prices into the sale line.
func buildItem(m *models.Medicine, qty int64) models.SaleItem {
	quantity := decimal.NewFromInt(qty)
	selling := decimal.NewFromFloat(m.SellingPrice)
	cost := decimal.NewFromFloat(m.PurchasePrice)

	itemTotal := selling.Mul(quantity)
	profit := selling.Sub(cost).Mul(quantity)

	return models.SaleItem{
		MedicineID:    m.ID,
		MedicineName:  m.Name,
		MedicinePower: m.Power,
		Quantity:      qty,
		PurchasePrice: m.PurchasePrice,
		SellingPrice:  m.SellingPrice,
		ItemTotal:     itemTotal.InexactFloat64(),
		Profit:        profit.InexactFloat64(),
	}
}

func (s *Service) buildSale(actor models.Actor, req models.SaleRequest, lines []models.SaleItem) *models.Sale {
	totalAmount := decimal.Zero
	totalProfit := decimal.Zero
	for _, item := range lines {
		totalAmount = totalAmount.Add(decimal.NewFromFloat(item.ItemTotal))
		totalProfit = totalProfit.Add(decimal.NewFromFloat(item.Profit))
	}

	discount := decimal.NewFromFloat(req.Discount)
	extraCharge := decimal.NewFromFloat(req.ExtraCharge)

	finalAmount := totalAmount.Sub(discount).Add(extraCharge)
	// Discount and surcharge flow through to profit the same way they flow
	// through to revenue.
	adjustedProfit := totalProfit.Sub(discount).Add(extraCharge)

	now := s.now().UTC()
	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	return &models.Sale{
		Items:         lines,
		TotalAmount:   totalAmount.InexactFloat64(),
		TotalProfit:   adjustedProfit.InexactFloat64(),
		Discount:      req.Discount,
		ExtraCharge:   req.ExtraCharge,
		FinalAmount:   finalAmount.InexactFloat64(),
		PaymentMethod: paymentMethod,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		InvoiceNumber: s.invoice(now),
		SaleDate:      now,
		Notes:         req.Notes,
		SoldBy:        actor.ID,
		SoldByName:    actor.DisplayName,
	}
}

// rollback compensates decrements already applied for a rejected request.
func (s *Service) rollback(ctx context.Context, applied []models.SaleItem) {
	for _, item := range applied {
		if err := s.ledger.IncrementStock(ctx, item.MedicineID, item.Quantity); err != nil {
			s.logger.Error("failed to compensate stock decrement",
				zap.String("medicine", item.MedicineName),
				zap.Int64("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

func (s *Service) publish(sale *models.Sale) {
	if s.notifier == nil {
		return
	}

	s.notifier.Publish(realtime.DashboardRoom, "sale-created", sale)

	stockUpdates := make([]map[string]any, 0, len(sale.Items))
	for _, item := range sale.Items {
		stockUpdates = append(stockUpdates, map[string]any{
			"medicineId":   item.MedicineID.Hex(),
			"medicineName": item.MedicineName,
		})
	}
	s.notifier.Publish(realtime.DashboardRoom, "stock-updated", map[string]any{"items": stockUpdates})
}

func conflicted(err error) bool {
	return errors.Is(err, apperr.ErrStockConflict)
}

// newInvoiceNumber generates a date-stamped invoice id with a random UUID
// suffix. The unique index on invoiceNumber is the real guarantee; the suffix
// makes collisions practically unreachable.
func newInvoiceNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("INV-%s-%s", now.Format("060102"), strings.ToUpper(suffix))
}
