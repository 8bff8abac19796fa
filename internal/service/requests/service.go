// Package requests runs the stock-request workflow: staff open replenishment
// requests, admins move them through a one-way state machine.
package requests

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/realtime"
)

// transitions is the complete workflow: pending forks to approved or rejected,
// approved can finish as completed. Nothing returns to pending, and rejected
// and completed are terminal.
var transitions = map[models.RequestStatus][]models.RequestStatus{
	models.RequestApproved:  {models.RequestPending},
	models.RequestRejected:  {models.RequestPending},
	models.RequestCompleted: {models.RequestApproved},
}

// Repository is the persistence required by the workflow.
type Repository interface {
	GetMedicine(ctx context.Context, id primitive.ObjectID) (*models.Medicine, error)
	InsertStockRequest(ctx context.Context, req *models.StockRequest) error
	GetStockRequest(ctx context.Context, id primitive.ObjectID) (*models.StockRequest, error)
	HasPendingRequest(ctx context.Context, medicineID, requestedBy primitive.ObjectID) (bool, error)
	TransitionStockRequest(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus, processedBy primitive.ObjectID, adminNotes string) (*models.StockRequest, error)
}

// Notifier broadcasts state-change events to connected dashboards.
type Notifier interface {
	Publish(room, event string, payload any)
}

// Service manages stock requests.
type Service struct {
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService constructs the stock-request service.
func NewService(repo Repository, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens a request in the pending state. A requester may hold only one
// pending request per medicine; the pre-check gives a friendly error and the
// partial unique index closes the race two concurrent creations would open.
func (s *Service) Create(ctx context.Context, actor models.Actor, input models.StockRequestInput) (*models.StockRequest, error) {
	if input.RequestedQuantity < 1 {
		return nil, apperr.Validationf("requested quantity must be at least 1")
	}
	if input.Reason == "" {
		return nil, apperr.Validationf("reason is required")
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	if !priority.Valid() {
		return nil, apperr.Validationf("invalid priority %q", priority)
	}

	medicineID, err := primitive.ObjectIDFromHex(input.MedicineID)
	if err != nil {
		return nil, apperr.Validationf("invalid medicine id %q", input.MedicineID)
	}

	medicine, err := s.repo.GetMedicine(ctx, medicineID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.HasPendingRequest(ctx, medicineID, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.ErrDuplicatePendingRequest
	}

	request := &models.StockRequest{
		MedicineID:        medicineID,
		MedicineName:      medicine.Name,
		RequestedQuantity: input.RequestedQuantity,
		Reason:            input.Reason,
		Status:            models.RequestPending,
		Priority:          priority,
		RequestedBy:       actor.ID,
		RequestedByName:   actor.DisplayName,
	}

	if err := s.repo.InsertStockRequest(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("stock request created",
		zap.String("medicine", medicine.Name),
		zap.Int64("quantity", input.RequestedQuantity),
		zap.String("requestedBy", actor.DisplayName))

	if s.notifier != nil {
		s.notifier.Publish(realtime.DashboardRoom, "stock-request-created", request)
	}

	return request, nil
}

// Transition moves a request to newStatus, stamping the acting admin and the
// processing time. The storage update is conditional on the expected
// predecessor status, so two admins racing on the same request cannot both win.
func (s *Service) Transition(ctx context.Context, actor models.Actor, id primitive.ObjectID, newStatus models.RequestStatus, adminNotes string) (*models.StockRequest, error) {
	from, ok := allowedPredecessor(newStatus)
	if !ok {
		return nil, apperr.Validationf("invalid status %q", newStatus)
	}

	current, err := s.repo.GetStockRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !contains(from, current.Status) {
		return nil, apperr.ErrInvalidTransition
	}

	request, err := s.repo.TransitionStockRequest(ctx, id, current.Status, newStatus, actor.ID, adminNotes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock request transitioned",
		zap.String("id", id.Hex()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(newStatus)),
		zap.String("processedBy", actor.DisplayName))

	if s.notifier != nil {
		s.notifier.Publish(realtime.DashboardRoom, "stock-request-updated", request)
	}

	return request, nil
}

func allowedPredecessor(to models.RequestStatus) ([]models.RequestStatus, bool) {
	from, ok := transitions[to]
	return from, ok
}

func contains(statuses []models.RequestStatus, status models.RequestStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
