// Package inventory manages the medicine catalog.
package inventory

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/realtime"
)

// Catalog is the medicine persistence required by the service.
type Catalog interface {
	InsertMedicine(ctx context.Context, m *models.Medicine) error
	InsertMedicines(ctx context.Context, medicines []models.Medicine) (int, error)
	GetMedicine(ctx context.Context, id primitive.ObjectID) (*models.Medicine, error)
	ListMedicines(ctx context.Context, filter models.MedicineFilter) ([]models.Medicine, int64, error)
	UpdateMedicine(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Medicine, error)
	DistinctCategories(ctx context.Context) ([]string, error)
}

// Notifier broadcasts state-change events to connected dashboards.
type Notifier interface {
	Publish(room, event string, payload any)
}

// Service manages the catalog.
type Service struct {
	catalog  Catalog
	notifier Notifier
	logger   *zap.Logger
}

// NewService constructs the inventory service.
func NewService(catalog Catalog, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, notifier: notifier, logger: logger}
}

// MedicineInput is the payload for creating or replacing a catalog entry.
type MedicineInput struct {
	Name              string   `json:"name" binding:"required"`
	GenericName       string   `json:"genericName"`
	Power             string   `json:"power" binding:"required"`
	Unit              string   `json:"unit" binding:"required"`
	UnitsPerPackage   int      `json:"unitsPerPackage"`
	PurchasePrice     *float64 `json:"purchasePrice" binding:"required"`
	SellingPrice      *float64 `json:"sellingPrice" binding:"required"`
	StockQuantity     int64    `json:"stockQuantity"`
	LowStockThreshold int64    `json:"lowStockThreshold"`
	Manufacturer      string   `json:"manufacturer"`
	Category          string   `json:"category"`
	ExpiryDate        *string  `json:"expiryDate"`
	BatchNumber       string   `json:"batchNumber"`
	Description       string   `json:"description"`
}

// Create adds a catalog entry.
func (s *Service) Create(ctx context.Context, actor models.Actor, input MedicineInput) (*models.Medicine, error) {
	medicine, err := medicineFromInput(input)
	if err != nil {
		return nil, err
	}
	medicine.CreatedBy = actor.ID

	if err := s.catalog.InsertMedicine(ctx, medicine); err != nil {
		return nil, err
	}

	s.logger.Info("medicine created", zap.String("name", medicine.Name), zap.String("createdBy", actor.DisplayName))

	if s.notifier != nil {
		s.notifier.Publish(realtime.DashboardRoom, "medicine-added", medicine)
	}
	return medicine, nil
}

// Get returns one catalog entry.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Medicine, error) {
	return s.catalog.GetMedicine(ctx, id)
}

// List returns a filtered catalog page and the unpaginated match count.
func (s *Service) List(ctx context.Context, filter models.MedicineFilter) ([]models.Medicine, int64, error) {
	return s.catalog.ListMedicines(ctx, filter)
}

// Update applies field changes to a catalog entry.
func (s *Service) Update(ctx context.Context, actor models.Actor, id primitive.ObjectID, fields bson.M) (*models.Medicine, error) {
	if err := validateUpdate(fields); err != nil {
		return nil, err
	}
	fields["updatedBy"] = actor.ID

	medicine, err := s.catalog.UpdateMedicine(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Publish(realtime.DashboardRoom, "medicine-updated", medicine)
	}
	return medicine, nil
}

// Delete soft-deletes a catalog entry; sales history keeps referencing it.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	_, err := s.catalog.UpdateMedicine(ctx, id, bson.M{"isActive": false, "updatedBy": actor.ID})
	if err != nil {
		return err
	}

	s.logger.Info("medicine deleted", zap.String("id", id.Hex()), zap.String("deletedBy", actor.DisplayName))

	if s.notifier != nil {
		s.notifier.Publish(realtime.DashboardRoom, "medicine-deleted", map[string]string{"id": id.Hex()})
	}
	return nil
}

// Categories lists every category in active use.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.catalog.DistinctCategories(ctx)
}

func medicineFromInput(input MedicineInput) (*models.Medicine, error) {
	if input.PurchasePrice == nil || *input.PurchasePrice < 0 {
		return nil, apperr.Validationf("purchase price must be provided and non-negative")
	}
	if input.SellingPrice == nil || *input.SellingPrice < 0 {
		return nil, apperr.Validationf("selling price must be provided and non-negative")
	}
	if input.StockQuantity < 0 {
		return nil, apperr.Validationf("stock quantity must not be negative")
	}

	unitsPerPackage := input.UnitsPerPackage
	if unitsPerPackage <= 0 {
		unitsPerPackage = 1
	}
	lowStockThreshold := input.LowStockThreshold
	if lowStockThreshold <= 0 {
		lowStockThreshold = 10
	}

	m := &models.Medicine{
		Name:              input.Name,
		GenericName:       input.GenericName,
		Power:             input.Power,
		Unit:              input.Unit,
		UnitsPerPackage:   unitsPerPackage,
		PurchasePrice:     *input.PurchasePrice,
		SellingPrice:      *input.SellingPrice,
		StockQuantity:     input.StockQuantity,
		LowStockThreshold: lowStockThreshold,
		Manufacturer:      input.Manufacturer,
		Category:          input.Category,
		BatchNumber:       input.BatchNumber,
		Description:       input.Description,
		IsActive:          true,
	}

	if input.ExpiryDate != nil && *input.ExpiryDate != "" {
		expiry, err := parseDate(*input.ExpiryDate)
		if err != nil {
			return nil, apperr.Validationf("invalid expiry date %q", *input.ExpiryDate)
		}
		m.ExpiryDate = &expiry
	}

	return m, nil
}

func validateUpdate(fields bson.M) error {
	for _, key := range []string{"purchasePrice", "sellingPrice"} {
		if v, ok := fields[key]; ok {
			if price, ok := v.(float64); ok && price < 0 {
				return apperr.Validationf("%s must not be negative", key)
			}
		}
	}
	if v, ok := fields["stockQuantity"]; ok {
		switch qty := v.(type) {
		case float64:
			if qty < 0 {
				return apperr.Validationf("stock quantity must not be negative")
			}
		case int64:
			if qty < 0 {
				return apperr.Validationf("stock quantity must not be negative")
			}
		}
	}
	return nil
}
