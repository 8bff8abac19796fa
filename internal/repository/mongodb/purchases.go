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

// InsertPurchase appends a purchase record.
func (s *Store) InsertPurchase(ctx context.Context, p *models.Purchase) error {
	p.CreatedAt = time.Now().UTC()

	res, err := s.db.Collection(purchasesColl).InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return nil
}

// GetPurchase looks up one purchase record by id.
func (s *Store) GetPurchase(ctx context.Context, id primitive.ObjectID) (*models.Purchase, error) {
	var p models.Purchase
	err := s.db.Collection(purchasesColl).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFoundf("purchase %s", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return &p, nil
}

// ListPurchases returns a filtered, paginated page of purchases newest-first,
// the unpaginated match count, and aggregate totals over the whole match.
func (s *Store) ListPurchases(ctx context.Context, filter models.PurchaseFilter) ([]models.Purchase, int64, models.PurchaseTotals, error) {
	query := bson.M{}

	if filter.StartDate != nil || filter.EndDate != nil {
		dateRange := bson.M{}
		if filter.StartDate != nil {
			dateRange["$gte"] = *filter.StartDate
		}
		if filter.EndDate != nil {
			dateRange["$lte"] = *filter.EndDate
		}
		query["purchaseDate"] = dateRange
	}
	if filter.MedicineID != "" {
		if oid, err := primitive.ObjectIDFromHex(filter.MedicineID); err == nil {
			query["medicine"] = oid
		}
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "purchaseDate", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.db.Collection(purchasesColl).Find(ctx, query, opts)
	if err != nil {
		return nil, 0, models.PurchaseTotals{}, fmt.Errorf("list purchases: %w", err)
	}

	var purchases []models.Purchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, 0, models.PurchaseTotals{}, fmt.Errorf("decode purchases: %w", err)
	}

	total, err := s.db.Collection(purchasesColl).CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, models.PurchaseTotals{}, fmt.Errorf("count purchases: %w", err)
	}

	totals, err := s.purchaseTotals(ctx, query)
	if err != nil {
		return nil, 0, models.PurchaseTotals{}, err
	}

	return purchases, total, totals, nil
}

func (s *Store) purchaseTotals(ctx context.Context, match bson.M) (models.PurchaseTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"totalQuantity": bson.M{"$sum": "$quantity"},
			"totalCost":     bson.M{"$sum": "$totalCost"},
		}}},
	}

	cursor, err := s.db.Collection(purchasesColl).Aggregate(ctx, pipeline)
	if err != nil {
		return models.PurchaseTotals{}, fmt.Errorf("aggregate purchase totals: %w", err)
	}

	var results []models.PurchaseTotals
	if err := cursor.All(ctx, &results); err != nil {
		return models.PurchaseTotals{}, fmt.Errorf("decode purchase totals: %w", err)
	}
	if len(results) == 0 {
		return models.PurchaseTotals{}, nil
	}
	return results[0], nil
}
