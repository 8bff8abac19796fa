package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/internal/domain/models"
)

// InsertMedicine stores a new catalog entry and returns it with its id set.
func (s *Store) InsertMedicine(ctx context.Context, m *models.Medicine) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	res, err := s.db.Collection(medicinesColl).InsertOne(ctx, m)
	if err != nil {
		return fmt.Errorf("insert medicine: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid
	}
	return nil
}

// InsertMedicines bulk-inserts imported catalog entries.
func (s *Store) InsertMedicines(ctx context.Context, medicines []models.Medicine) (int, error) {
	if len(medicines) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(medicines))
	now := time.Now().UTC()
	for i := range medicines {
		medicines[i].CreatedAt = now
		medicines[i].UpdatedAt = now
		docs = append(docs, medicines[i])
	}

	res, err := s.db.Collection(medicinesColl).InsertMany(ctx, docs)
	if err != nil {
		inserted := 0
		if res != nil {
			inserted = len(res.InsertedIDs)
		}
		return inserted, fmt.Errorf("insert medicines: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// GetMedicine looks up one catalog entry by id.
func (s *Store) GetMedicine(ctx context.Context, id primitive.ObjectID) (*models.Medicine, error) {
	var m models.Medicine
	err := s.db.Collection(medicinesColl).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFoundf("medicine %s", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("get medicine: %w", err)
	}
	return &m, nil
}

// ListMedicines returns a filtered, sorted, paginated catalog page plus the
// unpaginated match count.
func (s *Store) ListMedicines(ctx context.Context, filter models.MedicineFilter) ([]models.Medicine, int64, error) {
	query := bson.M{"isActive": true}

	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: filter.Search, Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"genericName": pattern},
			bson.M{"manufacturer": pattern},
		}
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.LowStock {
		query["$expr"] = bson.M{"$lte": bson.A{"$stockQuantity", "$lowStockThreshold"}}
	}
	if filter.OutOfStock {
		query["stockQuantity"] = 0
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "name"
	}
	order := 1
	if filter.SortOrder == "desc" {
		order = -1
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	opts := options.Find().
		SetSort(bson.D{{Key: sortBy, Value: order}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.db.Collection(medicinesColl).Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list medicines: %w", err)
	}

	var medicines []models.Medicine
	if err := cursor.All(ctx, &medicines); err != nil {
		return nil, 0, fmt.Errorf("decode medicines: %w", err)
	}

	total, err := s.db.Collection(medicinesColl).CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count medicines: %w", err)
	}

	return medicines, total, nil
}

// UpdateMedicine applies the supplied field changes and returns the updated document.
func (s *Store) UpdateMedicine(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Medicine, error) {
	fields["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.Medicine
	err := s.db.Collection(medicinesColl).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).
		Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFoundf("medicine %s", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("update medicine: %w", err)
	}
	return &m, nil
}

// DecrementStock atomically subtracts qty from on-hand stock, but only when
// enough remains. A zero match means a concurrent writer got there first (or
// stock was never sufficient); the quantity can never cross zero.
func (s *Store) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int64) error {
	res, err := s.db.Collection(medicinesColl).UpdateOne(ctx,
		bson.M{"_id": id, "stockQuantity": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"stockQuantity": -qty},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrStockConflict
	}
	return nil
}

// IncrementStock adds qty back to on-hand stock. Used to compensate a partially
// committed sale whose later line lost a stock race.
func (s *Store) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int64) error {
	res, err := s.db.Collection(medicinesColl).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"stockQuantity": qty},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFoundf("medicine %s", id.Hex())
	}
	return nil
}

// ApplyPurchase increments stock and overwrites the recorded unit cost, batch
// number and expiry date with the latest purchase's values (last write wins).
func (s *Store) ApplyPurchase(ctx context.Context, id primitive.ObjectID, qty int64, unitCost float64, batchNumber string, expiryDate *time.Time, updatedBy primitive.ObjectID) (*models.Medicine, error) {
	set := bson.M{
		"purchasePrice": unitCost,
		"updatedBy":     updatedBy,
		"updatedAt":     time.Now().UTC(),
	}
	if batchNumber != "" {
		set["batchNumber"] = batchNumber
	}
	if expiryDate != nil {
		set["expiryDate"] = *expiryDate
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.Medicine
	err := s.db.Collection(medicinesColl).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"stockQuantity": qty}, "$set": set}, opts).
		Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFoundf("medicine %s", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("apply purchase: %w", err)
	}
	return &m, nil
}

// DistinctCategories lists every category in active use.
func (s *Store) DistinctCategories(ctx context.Context) ([]string, error) {
	values, err := s.db.Collection(medicinesColl).Distinct(ctx, "category", bson.M{"isActive": true})
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok && str != "" {
			categories = append(categories, str)
		}
	}
	return categories, nil
}

// LowStockMedicines returns every active medicine at or below its threshold.
func (s *Store) LowStockMedicines(ctx context.Context) ([]models.Medicine, error) {
	query := bson.M{
		"isActive": true,
		"$expr":    bson.M{"$lte": bson.A{"$stockQuantity", "$lowStockThreshold"}},
	}

	cursor, err := s.db.Collection(medicinesColl).Find(ctx, query, options.Find().SetSort(bson.D{{Key: "stockQuantity", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list low stock medicines: %w", err)
	}

	var medicines []models.Medicine
	if err := cursor.All(ctx, &medicines); err != nil {
		return nil, fmt.Errorf("decode low stock medicines: %w", err)
	}
	return medicines, nil
}

func normalizePage(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return page, limit
}
