// Package mongodb persists the pharmacy's collections and owns every query and
// aggregation the services delegate to the database.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	medicinesColl = "medicines"
	salesColl     = "sales"
	purchasesColl = "purchases"
	requestsColl  = "stock_requests"
	usersColl     = "users"
	reportsColl   = "daily_reports"
)

// Store wraps the MongoDB client and exposes one method set per collection.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to MongoDB, verifies the connection and ensures the
// indexes the correctness invariants rely on.
func NewStore(ctx context.Context, uri string, dbName string) (*Store, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	return s, nil
}

// ensureIndexes creates the indexes that back the uniqueness guarantees:
// invoice numbers, user identities, and the at-most-one-pending-request rule.
func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	if _, err := s.db.Collection(salesColl).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "invoiceNumber", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "saleDate", Value: -1}}},
		{Keys: bson.D{{Key: "soldBy", Value: 1}, {Key: "saleDate", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("sales indexes: %w", err)
	}

	if _, err := s.db.Collection(purchasesColl).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "purchaseDate", Value: -1}}},
		{Keys: bson.D{{Key: "medicine", Value: 1}, {Key: "purchaseDate", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("purchases indexes: %w", err)
	}

	if _, err := s.db.Collection(usersColl).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "subjectId", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
	}); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	// Partial unique index closing the duplicate-pending-request race: two
	// concurrent creations can both pass the service pre-check, but only one
	// insert can land.
	pendingUnique := options.Index().
		SetUnique(true).
		SetPartialFilterExpression(bson.D{{Key: "status", Value: "pending"}})
	if _, err := s.db.Collection(requestsColl).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "medicine", Value: 1}, {Key: "requestedBy", Value: 1}}, Options: pendingUnique},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("stock_requests indexes: %w", err)
	}

	if _, err := s.db.Collection(medicinesColl).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "genericName", Value: "text"}, {Key: "manufacturer", Value: "text"}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("medicines indexes: %w", err)
	}

	return nil
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
