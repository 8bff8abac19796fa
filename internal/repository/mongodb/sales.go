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

// ErrDuplicateInvoice indicates the generated invoice number collided with an
// existing sale. The caller regenerates and retries.
var ErrDuplicateInvoice = errors.New("duplicate invoice number")

// InsertSale appends a sale record. Invoice uniqueness is enforced by the
// unique index created at startup.
func (s *Store) InsertSale(ctx context.Context, sale *models.Sale) error {
	sale.CreatedAt = time.Now().UTC()

	res, err := s.db.Collection(salesColl).InsertOne(ctx, sale)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateInvoice
	}
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		sale.ID = oid
	}
	return nil
}

// GetSale looks up one sale record by id.
func (s *Store) GetSale(ctx context.Context, id primitive.ObjectID) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.Collection(salesColl).FindOne(ctx, bson.M{"_id": id}).Decode(&sale)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFoundf("sale %s", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return &sale, nil
}

// ListSales returns a filtered, paginated page of sales newest-first, the
// unpaginated match count, and the aggregate totals over the whole match.
func (s *Store) ListSales(ctx context.Context, filter models.SaleFilter) ([]models.Sale, int64, models.SaleTotals, error) {
	query := saleQuery(filter)

	page, limit := normalizePage(filter.Page, filter.Limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "saleDate", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.db.Collection(salesColl).Find(ctx, query, opts)
	if err != nil {
		return nil, 0, models.SaleTotals{}, fmt.Errorf("list sales: %w", err)
	}

	var sales []models.Sale
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, 0, models.SaleTotals{}, fmt.Errorf("decode sales: %w", err)
	}

	total, err := s.db.Collection(salesColl).CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, models.SaleTotals{}, fmt.Errorf("count sales: %w", err)
	}

	totals, err := s.saleTotals(ctx, query)
	if err != nil {
		return nil, 0, models.SaleTotals{}, err
	}

	return sales, total, totals, nil
}

// SaleTotalsBetween aggregates revenue, profit and count over a time window.
func (s *Store) SaleTotalsBetween(ctx context.Context, start, end time.Time) (models.SaleTotals, error) {
	return s.saleTotals(ctx, bson.M{"saleDate": bson.M{"$gte": start, "$lte": end}})
}

func (s *Store) saleTotals(ctx context.Context, match bson.M) (models.SaleTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"totalAmount": bson.M{"$sum": "$finalAmount"},
			"totalProfit": bson.M{"$sum": "$totalProfit"},
			"totalSales":  bson.M{"$sum": 1},
		}}},
	}

	cursor, err := s.db.Collection(salesColl).Aggregate(ctx, pipeline)
	if err != nil {
		return models.SaleTotals{}, fmt.Errorf("aggregate sale totals: %w", err)
	}

	var results []models.SaleTotals
	if err := cursor.All(ctx, &results); err != nil {
		return models.SaleTotals{}, fmt.Errorf("decode sale totals: %w", err)
	}
	if len(results) == 0 {
		return models.SaleTotals{}, nil
	}
	return results[0], nil
}

func saleQuery(filter models.SaleFilter) bson.M {
	query := bson.M{}

	if filter.StartDate != nil || filter.EndDate != nil {
		dateRange := bson.M{}
		if filter.StartDate != nil {
			dateRange["$gte"] = *filter.StartDate
		}
		if filter.EndDate != nil {
			dateRange["$lte"] = *filter.EndDate
		}
		query["saleDate"] = dateRange
	}

	if filter.SoldBy != "" {
		if oid, err := primitive.ObjectIDFromHex(filter.SoldBy); err == nil {
			query["soldBy"] = oid
		}
	}

	return query
}
