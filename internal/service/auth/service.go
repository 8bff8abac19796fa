// Package auth turns bearer tokens into active user accounts and manages
// those accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/internal/domain/models"
)

// UserStore is the user persistence required by the service.
type UserStore interface {
	FindUserBySubject(ctx context.Context, subjectID string) (*models.User, error)
	InsertUser(ctx context.Context, u *models.User) error
	TouchLastLogin(ctx context.Context, id primitive.ObjectID) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListUsers(ctx context.Context, role models.Role, isActive *bool, page, limit int64) ([]models.User, int64, error)
	UpdateUserRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error)
	UpdateUserStatus(ctx context.Context, id primitive.ObjectID, isActive bool) (*models.User, error)
	ListActiveStaff(ctx context.Context) ([]models.User, error)
}

// Service authenticates requests and administers user accounts.
type Service struct {
	verifier TokenVerifier
	users    UserStore
	logger   *zap.Logger
}

// NewService constructs the auth service.
func NewService(verifier TokenVerifier, users UserStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{verifier: verifier, users: users, logger: logger}
}

// Authenticate verifies the bearer token and returns the active user behind
// it, creating the account on first contact. New accounts start as inactive
// staff until an admin enables them.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	ident, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindUserBySubject(ctx, ident.Subject)
	if errors.Is(err, apperr.ErrNotFound) {
		user = &models.User{
			SubjectID:   ident.Subject,
			Email:       ident.Email,
			DisplayName: displayNameFor(ident),
			PhotoURL:    ident.PhotoURL,
			Role:        models.RoleStaff,
			IsActive:    false,
		}
		if err := s.users.InsertUser(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("user created on first login", zap.String("email", user.Email))
	} else if err != nil {
		return nil, err
	} else {
		if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
			s.logger.Warn("failed updating last login", zap.Error(err))
		}
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", apperr.ErrForbidden)
	}

	return user, nil
}

// Authorize checks the actor's role against the operation's allowed set.
func Authorize(actor models.Actor, allowed ...models.Role) error {
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q may not perform this operation", apperr.ErrForbidden, actor.Role)
}

// ListUsers returns a filtered, paginated user page.
func (s *Service) ListUsers(ctx context.Context, role models.Role, isActive *bool, page, limit int64) ([]models.User, int64, error) {
	if role != "" && !role.Valid() {
		return nil, 0, apperr.Validationf("invalid role %q", role)
	}
	return s.users.ListUsers(ctx, role, isActive, page, limit)
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.users.GetUser(ctx, id)
}

// UpdateRole changes a user's role. An admin cannot demote themself.
func (s *Service) UpdateRole(ctx context.Context, actor models.Actor, id primitive.ObjectID, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, apperr.Validationf("invalid role %q", role)
	}
	if actor.ID == id && role != models.RoleAdmin {
		return nil, apperr.Validationf("cannot remove your own admin role")
	}

	user, err := s.users.UpdateUserRole(ctx, id, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user role updated",
		zap.String("user", user.Email),
		zap.String("role", string(role)),
		zap.String("updatedBy", actor.DisplayName))
	return user, nil
}

// UpdateStatus toggles a user's active flag. Nobody can deactivate themself.
func (s *Service) UpdateStatus(ctx context.Context, actor models.Actor, id primitive.ObjectID, isActive bool) (*models.User, error) {
	if actor.ID == id && !isActive {
		return nil, apperr.Validationf("cannot deactivate your own account")
	}

	user, err := s.users.UpdateUserStatus(ctx, id, isActive)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user status updated",
		zap.String("user", user.Email),
		zap.Bool("isActive", isActive),
		zap.String("updatedBy", actor.DisplayName))
	return user, nil
}

// StaffList returns active staff for dropdowns.
func (s *Service) StaffList(ctx context.Context) ([]models.User, error) {
	return s.users.ListActiveStaff(ctx)
}

func displayNameFor(ident *Identity) string {
	if ident.DisplayName != "" {
		return ident.DisplayName
	}
	if at := strings.Index(ident.Email, "@"); at > 0 {
		return ident.Email[:at]
	}
	return ident.Subject
}
