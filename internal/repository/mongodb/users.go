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

// FindUserBySubject looks up a user by identity-provider subject id.
func (s *Store) FindUserBySubject(ctx context.Context, subjectID string) (*models.User, error) {
	var u models.User
	err := s.db.Collection(usersColl).FindOne(ctx, bson.M{"subjectId": subjectID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFoundf("user subject %s", subjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("find user by subject: %w", err)
	}
	return &u, nil
}

// InsertUser creates a new user record.
func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.LastLogin = now

	res, err := s.db.Collection(usersColl).InsertOne(ctx, u)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

// TouchLastLogin records a successful authentication.
func (s *Store) TouchLastLogin(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.db.Collection(usersColl).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"lastLogin": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// GetUser looks up one user by id.
func (s *Store) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.db.Collection(usersColl).FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFoundf("user %s", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ListUsers returns a filtered, paginated page of users newest-first plus the
// unpaginated match count.
func (s *Store) ListUsers(ctx context.Context, role models.Role, isActive *bool, page, limit int64) ([]models.User, int64, error) {
	query := bson.M{}
	if role != "" {
		query["role"] = role
	}
	if isActive != nil {
		query["isActive"] = *isActive
	}

	page, limit = normalizePage(page, limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.db.Collection(usersColl).Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}

	total, err := s.db.Collection(usersColl).CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// UpdateUserRole changes a user's role and returns the updated document.
func (s *Store) UpdateUserRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error) {
	return s.updateUser(ctx, id, bson.M{"role": role})
}

// UpdateUserStatus toggles a user's active flag and returns the updated document.
func (s *Store) UpdateUserStatus(ctx context.Context, id primitive.ObjectID, isActive bool) (*models.User, error) {
	return s.updateUser(ctx, id, bson.M{"isActive": isActive})
}

func (s *Store) updateUser(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	fields["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := s.db.Collection(usersColl).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).
		Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFoundf("user %s", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

// ListActiveStaff returns active staff members for dropdowns.
func (s *Store) ListActiveStaff(ctx context.Context) ([]models.User, error) {
	cursor, err := s.db.Collection(usersColl).Find(ctx,
		bson.M{"role": models.RoleStaff, "isActive": true},
		options.Find().SetSort(bson.D{{Key: "displayName", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}

	var staff []models.User
	if err := cursor.All(ctx, &staff); err != nil {
		return nil, fmt.Errorf("decode staff: %w", err)
	}
	return staff, nil
}

// CountActiveStaff counts enabled staff accounts.
func (s *Store) CountActiveStaff(ctx context.Context) (int64, error) {
	count, err := s.db.Collection(usersColl).CountDocuments(ctx, bson.M{"role": models.RoleStaff, "isActive": true})
	if err != nil {
		return 0, fmt.Errorf("count staff: %w", err)
	}
	return count, nil
}
