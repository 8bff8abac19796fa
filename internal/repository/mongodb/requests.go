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

// InsertStockRequest opens a new request. The partial unique index rejects a
// second pending request for the same (medicine, requester) pair even when two
// creations race past the service-level pre-check.
func (s *Store) InsertStockRequest(ctx context.Context, req *models.StockRequest) error {
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	res, err := s.db.Collection(requestsColl).InsertOne(ctx, req)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.ErrDuplicatePendingRequest
	}
	if err != nil {
		return fmt.Errorf("insert stock request: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		req.ID = oid
	}
	return nil
}

// GetStockRequest looks up one request by id.
func (s *Store) GetStockRequest(ctx context.Context, id primitive.ObjectID) (*models.StockRequest, error) {
	var req models.StockRequest
	err := s.db.Collection(requestsColl).FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFoundf("stock request %s", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("get stock request: %w", err)
	}
	return &req, nil
}

// HasPendingRequest reports whether the requester already has a pending
// request for this medicine.
func (s *Store) HasPendingRequest(ctx context.Context, medicineID, requestedBy primitive.ObjectID) (bool, error) {
	count, err := s.db.Collection(requestsColl).CountDocuments(ctx, bson.M{
		"medicine":    medicineID,
		"requestedBy": requestedBy,
		"status":      models.RequestPending,
	})
	if err != nil {
		return false, fmt.Errorf("check pending request: %w", err)
	}
	return count > 0, nil
}

// ListStockRequests returns a filtered, paginated page of requests newest-first
// plus the unpaginated match count.
func (s *Store) ListStockRequests(ctx context.Context, filter models.StockRequestFilter) ([]models.StockRequest, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.RequestedBy != "" {
		if oid, err := primitive.ObjectIDFromHex(filter.RequestedBy); err == nil {
			query["requestedBy"] = oid
		}
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.db.Collection(requestsColl).Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock requests: %w", err)
	}

	var requests []models.StockRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, 0, fmt.Errorf("decode stock requests: %w", err)
	}

	total, err := s.db.Collection(requestsColl).CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count stock requests: %w", err)
	}

	return requests, total, nil
}

// TransitionStockRequest moves a request to newStatus, but only while its
// current status is still the expected predecessor. A zero match with the
// document present means a concurrent transition won; the workflow treats that
// as an invalid transition.
func (s *Store) TransitionStockRequest(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus, processedBy primitive.ObjectID, adminNotes string) (*models.StockRequest, error) {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"status":      to,
		"adminNotes":  adminNotes,
		"processedBy": processedBy,
		"processedAt": now,
		"updatedAt":   now,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var req models.StockRequest
	err := s.db.Collection(requestsColl).
		FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update, opts).
		Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish a missing request from one whose status moved under us.
		if _, getErr := s.GetStockRequest(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperr.ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("transition stock request: %w", err)
	}
	return &req, nil
}

// CountPendingRequests returns the admin notification badge count.
func (s *Store) CountPendingRequests(ctx context.Context) (int64, error) {
	count, err := s.db.Collection(requestsColl).CountDocuments(ctx, bson.M{"status": models.RequestPending})
	if err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return count, nil
}
