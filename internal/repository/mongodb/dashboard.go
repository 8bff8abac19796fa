package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/supto/pharmacy-buddy/internal/domain/models"
)

// MedicineStats summarizes the active catalog in one aggregation pass.
func (s *Store) MedicineStats(ctx context.Context) (models.MedicineStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isActive": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"totalMedicines": bson.M{"$sum": 1},
			"totalStock":     bson.M{"$sum": "$stockQuantity"},
			"lowStockCount": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$lte": bson.A{"$stockQuantity", "$lowStockThreshold"}}, 1, 0},
			}},
			"outOfStockCount": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$stockQuantity", 0}}, 1, 0},
			}},
		}}},
	}

	cursor, err := s.db.Collection(medicinesColl).Aggregate(ctx, pipeline)
	if err != nil {
		return models.MedicineStats{}, fmt.Errorf("aggregate medicine stats: %w", err)
	}

	var results []models.MedicineStats
	if err := cursor.All(ctx, &results); err != nil {
		return models.MedicineStats{}, fmt.Errorf("decode medicine stats: %w", err)
	}
	if len(results) == 0 {
		return models.MedicineStats{}, nil
	}
	return results[0], nil
}

// monthlyBucket is the shared shape of the month-grouped pipelines.
type monthlyBucket struct {
	ID struct {
		Year  int `bson:"year"`
		Month int `bson:"month"`
	} `bson:"_id"`
	Count  int64   `bson:"count"`
	Amount float64 `bson:"amount"`
	Profit float64 `bson:"profit"`
	Items  int64   `bson:"items"`
}

// MonthlySales groups sales by calendar month since the given time.
func (s *Store) MonthlySales(ctx context.Context, since time.Time) (map[string]models.MonthlyStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"saleDate": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$saleDate"},
				"month": bson.M{"$month": "$saleDate"},
			},
			"count":  bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$finalAmount"},
			"profit": bson.M{"$sum": "$totalProfit"},
			"items":  bson.M{"$sum": bson.M{"$sum": "$items.quantity"}},
		}}},
	}

	cursor, err := s.db.Collection(salesColl).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate monthly sales: %w", err)
	}

	var buckets []monthlyBucket
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("decode monthly sales: %w", err)
	}

	stats := make(map[string]models.MonthlyStat, len(buckets))
	for _, b := range buckets {
		stats[monthKey(b.ID.Year, b.ID.Month)] = models.MonthlyStat{
			Year:      b.ID.Year,
			Month:     b.ID.Month,
			Sales:     b.Count,
			Revenue:   b.Amount,
			Profit:    b.Profit,
			ItemsSold: b.Items,
		}
	}
	return stats, nil
}

// MonthlyPurchases groups purchases by calendar month since the given time.
func (s *Store) MonthlyPurchases(ctx context.Context, since time.Time) (map[string]models.MonthlyStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"purchaseDate": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$purchaseDate"},
				"month": bson.M{"$month": "$purchaseDate"},
			},
			"count":  bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$totalCost"},
			"items":  bson.M{"$sum": "$quantity"},
		}}},
	}

	cursor, err := s.db.Collection(purchasesColl).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate monthly purchases: %w", err)
	}

	var buckets []monthlyBucket
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("decode monthly purchases: %w", err)
	}

	stats := make(map[string]models.MonthlyStat, len(buckets))
	for _, b := range buckets {
		stats[monthKey(b.ID.Year, b.ID.Month)] = models.MonthlyStat{
			Year:           b.ID.Year,
			Month:          b.ID.Month,
			Purchases:      b.Count,
			Cost:           b.Amount,
			ItemsPurchased: b.Items,
		}
	}
	return stats, nil
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// TopMedicines ranks medicines by quantity sold since the given time.
func (s *Store) TopMedicines(ctx context.Context, since time.Time, limit int64) ([]models.TopMedicine, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"saleDate": bson.M{"$gte": since}}}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$items.medicine",
			"name":          bson.M{"$first": "$items.medicineName"},
			"power":         bson.M{"$first": "$items.medicinePower"},
			"totalQuantity": bson.M{"$sum": "$items.quantity"},
			"totalRevenue":  bson.M{"$sum": "$items.itemTotal"},
			"totalProfit":   bson.M{"$sum": "$items.profit"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalQuantity", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := s.db.Collection(salesColl).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate top medicines: %w", err)
	}

	var results []models.TopMedicine
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode top medicines: %w", err)
	}
	return results, nil
}

// StaffPerformance groups sales per operator over an optional window and joins
// user details.
func (s *Store) StaffPerformance(ctx context.Context, start, end *time.Time) ([]models.StaffPerformance, error) {
	match := bson.M{}
	if start != nil || end != nil {
		dateRange := bson.M{}
		if start != nil {
			dateRange["$gte"] = *start
		}
		if end != nil {
			dateRange["$lte"] = *end
		}
		match["saleDate"] = dateRange
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$soldBy",
			"totalSales":   bson.M{"$sum": 1},
			"totalRevenue": bson.M{"$sum": "$finalAmount"},
			"totalProfit":  bson.M{"$sum": "$totalProfit"},
			"totalItems":   bson.M{"$sum": bson.M{"$sum": "$items.quantity"}},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersColl,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$project", Value: bson.M{
			"displayName":  "$user.displayName",
			"email":        "$user.email",
			"photoURL":     "$user.photoURL",
			"role":         "$user.role",
			"totalSales":   1,
			"totalRevenue": 1,
			"totalProfit":  1,
			"totalItems":   1,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalRevenue", Value: -1}}}},
	}

	cursor, err := s.db.Collection(salesColl).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate staff performance: %w", err)
	}

	var results []models.StaffPerformance
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode staff performance: %w", err)
	}
	return results, nil
}

// RecentSales returns the most recent sale records.
func (s *Store) RecentSales(ctx context.Context, limit int64) ([]models.Sale, error) {
	opts := options.Find().SetSort(bson.D{{Key: "saleDate", Value: -1}}).SetLimit(limit)
	cursor, err := s.db.Collection(salesColl).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("recent sales: %w", err)
	}

	var sales []models.Sale
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, fmt.Errorf("decode recent sales: %w", err)
	}
	return sales, nil
}

// RecentPurchases returns the most recent purchase records.
func (s *Store) RecentPurchases(ctx context.Context, limit int64) ([]models.Purchase, error) {
	opts := options.Find().SetSort(bson.D{{Key: "purchaseDate", Value: -1}}).SetLimit(limit)
	cursor, err := s.db.Collection(purchasesColl).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("recent purchases: %w", err)
	}

	var purchases []models.Purchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, fmt.Errorf("decode recent purchases: %w", err)
	}
	return purchases, nil
}
