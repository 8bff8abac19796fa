package requests

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/internal/domain/models"
)

type fakeRepo struct {
	medicine *models.Medicine
	requests map[primitive.ObjectID]*models.StockRequest
	pending  bool
}

func newFakeRepo(medicine *models.Medicine) *fakeRepo {
	return &fakeRepo{
		medicine: medicine,
		requests: make(map[primitive.ObjectID]*models.StockRequest),
	}
}

func (r *fakeRepo) GetMedicine(_ context.Context, id primitive.ObjectID) (*models.Medicine, error) {
	if r.medicine == nil || r.medicine.ID != id {
		return nil, apperr.NotFoundf("medicine %s not found", id.Hex())
	}
	return r.medicine, nil
}

func (r *fakeRepo) InsertStockRequest(_ context.Context, req *models.StockRequest) error {
	req.ID = primitive.NewObjectID()
	r.requests[req.ID] = req
	return nil
}

func (r *fakeRepo) GetStockRequest(_ context.Context, id primitive.ObjectID) (*models.StockRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, apperr.NotFoundf("stock request %s not found", id.Hex())
	}
	copied := *req
	return &copied, nil
}

func (r *fakeRepo) HasPendingRequest(_ context.Context, _, _ primitive.ObjectID) (bool, error) {
	return r.pending, nil
}

func (r *fakeRepo) TransitionStockRequest(_ context.Context, id primitive.ObjectID, from, to models.RequestStatus, processedBy primitive.ObjectID, adminNotes string) (*models.StockRequest, error) {
	req, ok := r.requests[id]
	if !ok || req.Status != from {
		return nil, apperr.ErrInvalidTransition
	}
	now := time.Now().UTC()
	req.Status = to
	req.ProcessedBy = processedBy
	req.ProcessedAt = &now
	req.AdminNotes = adminNotes
	copied := *req
	return &copied, nil
}

type fakeNotifier struct {
	events []string
}

func (n *fakeNotifier) Publish(_, event string, _ any) {
	n.events = append(n.events, event)
}

func staffActor() models.Actor {
	return models.Actor{ID: primitive.NewObjectID(), DisplayName: "Staff One", Role: models.RoleStaff}
}

func adminActor() models.Actor {
	return models.Actor{ID: primitive.NewObjectID(), DisplayName: "Admin", Role: models.RoleAdmin}
}

func testMedicine() *models.Medicine {
	return &models.Medicine{ID: primitive.NewObjectID(), Name: "Monas", StockQuantity: 2, LowStockThreshold: 10}
}

func TestCreate_OpensPendingRequest(t *testing.T) {
	medicine := testMedicine()
	repo := newFakeRepo(medicine)
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier, nil)
	actor := staffActor()

	request, err := svc.Create(context.Background(), actor, models.StockRequestInput{
		MedicineID:        medicine.ID.Hex(),
		RequestedQuantity: 100,
		Reason:            "running low",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if request.Status != models.RequestPending {
		t.Errorf("expected pending status, got %q", request.Status)
	}
	if request.Priority != models.PriorityNormal {
		t.Errorf("expected default normal priority, got %q", request.Priority)
	}
	if request.RequestedBy != actor.ID {
		t.Error("expected request stamped with the requesting actor")
	}
	if request.MedicineName != "Monas" {
		t.Errorf("expected denormalized medicine name, got %q", request.MedicineName)
	}
	if len(notifier.events) != 1 || notifier.events[0] != "stock-request-created" {
		t.Errorf("expected stock-request-created event, got %v", notifier.events)
	}
}

func TestCreate_DuplicatePending(t *testing.T) {
	medicine := testMedicine()
	repo := newFakeRepo(medicine)
	repo.pending = true
	svc := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), staffActor(), models.StockRequestInput{
		MedicineID:        medicine.ID.Hex(),
		RequestedQuantity: 10,
		Reason:            "again",
	})
	if !errors.Is(err, apperr.ErrDuplicatePendingRequest) {
		t.Errorf("expected duplicate pending error, got %v", err)
	}
	if len(repo.requests) != 0 {
		t.Errorf("expected no persisted request, got %d", len(repo.requests))
	}
}

func TestCreate_Validation(t *testing.T) {
	medicine := testMedicine()
	repo := newFakeRepo(medicine)
	svc := NewService(repo, nil, nil)
	actor := staffActor()

	cases := []struct {
		name  string
		input models.StockRequestInput
	}{
		{"zero quantity", models.StockRequestInput{MedicineID: medicine.ID.Hex(), RequestedQuantity: 0, Reason: "x"}},
		{"missing reason", models.StockRequestInput{MedicineID: medicine.ID.Hex(), RequestedQuantity: 1}},
		{"bad priority", models.StockRequestInput{MedicineID: medicine.ID.Hex(), RequestedQuantity: 1, Reason: "x", Priority: "asap"}},
		{"malformed id", models.StockRequestInput{MedicineID: "nope", RequestedQuantity: 1, Reason: "x"}},
	}

	for _, tc := range cases {
		_, err := svc.Create(context.Background(), actor, tc.input)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func seedRequest(repo *fakeRepo, status models.RequestStatus) primitive.ObjectID {
	id := primitive.NewObjectID()
	repo.requests[id] = &models.StockRequest{
		ID:     id,
		Status: status,
	}
	return id
}

func TestTransition_PendingToApproved(t *testing.T) {
	repo := newFakeRepo(testMedicine())
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier, nil)
	admin := adminActor()
	id := seedRequest(repo, models.RequestPending)

	request, err := svc.Transition(context.Background(), admin, id, models.RequestApproved, "ordering tomorrow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if request.Status != models.RequestApproved {
		t.Errorf("expected approved, got %q", request.Status)
	}
	if request.ProcessedBy != admin.ID {
		t.Error("expected request stamped with the processing admin")
	}
	if request.ProcessedAt == nil {
		t.Error("expected processedAt to be set")
	}
	if request.AdminNotes != "ordering tomorrow" {
		t.Errorf("expected admin notes preserved, got %q", request.AdminNotes)
	}
	if len(notifier.events) != 1 || notifier.events[0] != "stock-request-updated" {
		t.Errorf("expected stock-request-updated event, got %v", notifier.events)
	}
}

func TestTransition_ApprovedToCompleted(t *testing.T) {
	repo := newFakeRepo(testMedicine())
	svc := NewService(repo, nil, nil)
	id := seedRequest(repo, models.RequestApproved)

	request, err := svc.Transition(context.Background(), adminActor(), id, models.RequestCompleted, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if request.Status != models.RequestCompleted {
		t.Errorf("expected completed, got %q", request.Status)
	}
}

func TestTransition_Illegal(t *testing.T) {
	repo := newFakeRepo(testMedicine())
	svc := NewService(repo, nil, nil)
	admin := adminActor()

	cases := []struct {
		name string
		from models.RequestStatus
		to   models.RequestStatus
	}{
		{"pending to completed", models.RequestPending, models.RequestCompleted},
		{"rejected to approved", models.RequestRejected, models.RequestApproved},
		{"completed to approved", models.RequestCompleted, models.RequestApproved},
		{"approved to rejected", models.RequestApproved, models.RequestRejected},
	}

	for _, tc := range cases {
		id := seedRequest(repo, tc.from)
		_, err := svc.Transition(context.Background(), admin, id, tc.to, "")
		if !errors.Is(err, apperr.ErrInvalidTransition) {
			t.Errorf("%s: expected invalid transition, got %v", tc.name, err)
		}
		if repo.requests[id].Status != tc.from {
			t.Errorf("%s: expected status unchanged, got %q", tc.name, repo.requests[id].Status)
		}
	}
}

func TestTransition_UnknownTargetStatus(t *testing.T) {
	repo := newFakeRepo(testMedicine())
	svc := NewService(repo, nil, nil)
	id := seedRequest(repo, models.RequestPending)

	_, err := svc.Transition(context.Background(), adminActor(), id, models.RequestStatus("archived"), "")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}

func TestTransition_BackToPendingIsRejected(t *testing.T) {
	repo := newFakeRepo(testMedicine())
	svc := NewService(repo, nil, nil)
	id := seedRequest(repo, models.RequestApproved)

	_, err := svc.Transition(context.Background(), adminActor(), id, models.RequestPending, "")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error moving back to pending, got %v", err)
	}
}
