package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/supto/pharmacy-buddy/internal/domain/models"
)

// ExportMedicines returns every active catalog entry for export.
func (s *Store) ExportMedicines(ctx context.Context) ([]models.Medicine, error) {
	cursor, err := s.db.Collection(medicinesColl).Find(ctx, bson.M{"isActive": true})
	if err != nil {
		return nil, fmt.Errorf("export medicines: %w", err)
	}
	var medicines []models.Medicine
	if err := cursor.All(ctx, &medicines); err != nil {
		return nil, fmt.Errorf("decode exported medicines: %w", err)
	}
	return medicines, nil
}

// ExportSales returns every sale record for export.
func (s *Store) ExportSales(ctx context.Context) ([]models.Sale, error) {
	cursor, err := s.db.Collection(salesColl).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("export sales: %w", err)
	}
	var sales []models.Sale
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, fmt.Errorf("decode exported sales: %w", err)
	}
	return sales, nil
}

// ExportPurchases returns every purchase record for export.
func (s *Store) ExportPurchases(ctx context.Context) ([]models.Purchase, error) {
	cursor, err := s.db.Collection(purchasesColl).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("export purchases: %w", err)
	}
	var purchases []models.Purchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, fmt.Errorf("decode exported purchases: %w", err)
	}
	return purchases, nil
}

// ExportStockRequests returns every stock request for export.
func (s *Store) ExportStockRequests(ctx context.Context) ([]models.StockRequest, error) {
	cursor, err := s.db.Collection(requestsColl).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("export stock requests: %w", err)
	}
	var requests []models.StockRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("decode exported stock requests: %w", err)
	}
	return requests, nil
}

// EraseAll deletes every medicine, sale, purchase and stock request. User
// accounts and daily reports survive.
func (s *Store) EraseAll(ctx context.Context) error {
	for _, coll := range []string{medicinesColl, salesColl, purchasesColl, requestsColl} {
		if _, err := s.db.Collection(coll).DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("erase %s: %w", coll, err)
		}
	}
	return nil
}
