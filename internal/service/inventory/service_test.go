package inventory

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/internal/domain/models"
)

type fakeCatalog struct {
	medicines map[primitive.ObjectID]*models.Medicine
	updates   []bson.M
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{medicines: make(map[primitive.ObjectID]*models.Medicine)}
}

func (c *fakeCatalog) InsertMedicine(_ context.Context, m *models.Medicine) error {
	m.ID = primitive.NewObjectID()
	c.medicines[m.ID] = m
	return nil
}

func (c *fakeCatalog) InsertMedicines(_ context.Context, medicines []models.Medicine) (int, error) {
	for i := range medicines {
		medicines[i].ID = primitive.NewObjectID()
		copied := medicines[i]
		c.medicines[copied.ID] = &copied
	}
	return len(medicines), nil
}

func (c *fakeCatalog) GetMedicine(_ context.Context, id primitive.ObjectID) (*models.Medicine, error) {
	m, ok := c.medicines[id]
	if !ok {
		return nil, apperr.NotFoundf("medicine %s not found", id.Hex())
	}
	return m, nil
}

func (c *fakeCatalog) ListMedicines(_ context.Context, _ models.MedicineFilter) ([]models.Medicine, int64, error) {
	out := make([]models.Medicine, 0, len(c.medicines))
	for _, m := range c.medicines {
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

func (c *fakeCatalog) UpdateMedicine(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.Medicine, error) {
	m, ok := c.medicines[id]
	if !ok {
		return nil, apperr.NotFoundf("medicine %s not found", id.Hex())
	}
	c.updates = append(c.updates, fields)
	if v, ok := fields["isActive"]; ok {
		m.IsActive = v.(bool)
	}
	return m, nil
}

func (c *fakeCatalog) DistinctCategories(_ context.Context) ([]string, error) {
	return []string{"Analgesic", "Antibiotic"}, nil
}

type fakeNotifier struct {
	events []string
}

func (n *fakeNotifier) Publish(_, event string, _ any) {
	n.events = append(n.events, event)
}

func adminActor() models.Actor {
	return models.Actor{ID: primitive.NewObjectID(), DisplayName: "Admin", Role: models.RoleAdmin}
}

func floatPtr(v float64) *float64 { return &v }

func validInput() MedicineInput {
	return MedicineInput{
		Name:          "Napa",
		Power:         "500mg",
		Unit:          "tablet",
		PurchasePrice: floatPtr(0.8),
		SellingPrice:  floatPtr(1.2),
		StockQuantity: 100,
	}
}

func TestCreate_AppliesDefaults(t *testing.T) {
	catalog := newFakeCatalog()
	notifier := &fakeNotifier{}
	svc := NewService(catalog, notifier, nil)
	actor := adminActor()

	medicine, err := svc.Create(context.Background(), actor, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if medicine.UnitsPerPackage != 1 {
		t.Errorf("expected default unitsPerPackage 1, got %d", medicine.UnitsPerPackage)
	}
	if medicine.LowStockThreshold != 10 {
		t.Errorf("expected default lowStockThreshold 10, got %d", medicine.LowStockThreshold)
	}
	if !medicine.IsActive {
		t.Error("expected new medicine to be active")
	}
	if medicine.CreatedBy != actor.ID {
		t.Error("expected createdBy stamped with the actor")
	}
	if len(notifier.events) != 1 || notifier.events[0] != "medicine-added" {
		t.Errorf("expected medicine-added event, got %v", notifier.events)
	}
}

func TestCreate_ParsesExpiryDate(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewService(catalog, nil, nil)

	input := validInput()
	expiry := "2027-03-15"
	input.ExpiryDate = &expiry

	medicine, err := svc.Create(context.Background(), adminActor(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if medicine.ExpiryDate == nil {
		t.Fatal("expected expiry date to be set")
	}
	if medicine.ExpiryDate.Year() != 2027 || medicine.ExpiryDate.Month() != 3 {
		t.Errorf("unexpected expiry %v", medicine.ExpiryDate)
	}
}

func TestCreate_Validation(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewService(catalog, nil, nil)
	actor := adminActor()

	missingPurchase := validInput()
	missingPurchase.PurchasePrice = nil

	negativeSelling := validInput()
	negativeSelling.SellingPrice = floatPtr(-1)

	negativeStock := validInput()
	negativeStock.StockQuantity = -5

	badExpiry := validInput()
	expiry := "soon"
	badExpiry.ExpiryDate = &expiry

	cases := []struct {
		name  string
		input MedicineInput
	}{
		{"missing purchase price", missingPurchase},
		{"negative selling price", negativeSelling},
		{"negative stock", negativeStock},
		{"bad expiry", badExpiry},
	}

	for _, tc := range cases {
		_, err := svc.Create(context.Background(), actor, tc.input)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
	if len(catalog.medicines) != 0 {
		t.Errorf("expected nothing persisted, got %d entries", len(catalog.medicines))
	}
}

func TestUpdate_RejectsNegativePrice(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewService(catalog, nil, nil)

	medicine, err := svc.Create(context.Background(), adminActor(), validInput())
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	_, err = svc.Update(context.Background(), adminActor(), medicine.ID, bson.M{"sellingPrice": -2.0})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdate_StampsActor(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewService(catalog, nil, nil)
	actor := adminActor()

	medicine, err := svc.Create(context.Background(), actor, validInput())
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	_, err = svc.Update(context.Background(), actor, medicine.ID, bson.M{"sellingPrice": 1.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(catalog.updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(catalog.updates))
	}
	if catalog.updates[0]["updatedBy"] != actor.ID {
		t.Error("expected updatedBy stamped with the actor")
	}
}

func TestDelete_SoftDeletes(t *testing.T) {
	catalog := newFakeCatalog()
	notifier := &fakeNotifier{}
	svc := NewService(catalog, notifier, nil)
	actor := adminActor()

	medicine, err := svc.Create(context.Background(), actor, validInput())
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if err := svc.Delete(context.Background(), actor, medicine.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if catalog.medicines[medicine.ID].IsActive {
		t.Error("expected medicine marked inactive, not removed")
	}
	if _, ok := catalog.medicines[medicine.ID]; !ok {
		t.Error("expected medicine document to survive deletion")
	}
	if notifier.events[len(notifier.events)-1] != "medicine-deleted" {
		t.Errorf("expected medicine-deleted event, got %v", notifier.events)
	}
}

func TestMedicineFromRow(t *testing.T) {
	row := []string{"Napa", "Paracetamol", "500mg", "tablet", "10", "0.8", "1.2", "200", "20", "Beximco", "Analgesic", "2027-03-15", "B-77"}

	medicine, err := medicineFromRow(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if medicine.Name != "Napa" || medicine.GenericName != "Paracetamol" {
		t.Errorf("unexpected names %q/%q", medicine.Name, medicine.GenericName)
	}
	if medicine.StockQuantity != 200 || medicine.LowStockThreshold != 20 {
		t.Errorf("unexpected quantities %d/%d", medicine.StockQuantity, medicine.LowStockThreshold)
	}
	if medicine.ExpiryDate == nil {
		t.Error("expected expiry date parsed")
	}
	if medicine.BatchNumber != "B-77" {
		t.Errorf("expected batch B-77, got %q", medicine.BatchNumber)
	}
}

func TestMedicineFromRow_ShortRowGetsDefaults(t *testing.T) {
	row := []string{"Seclo", "", "20mg", "capsule", "", "4", "7"}

	medicine, err := medicineFromRow(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if medicine.UnitsPerPackage != 1 {
		t.Errorf("expected default unitsPerPackage 1, got %d", medicine.UnitsPerPackage)
	}
	if medicine.LowStockThreshold != 10 {
		t.Errorf("expected default threshold 10, got %d", medicine.LowStockThreshold)
	}
	if medicine.StockQuantity != 0 {
		t.Errorf("expected zero stock, got %d", medicine.StockQuantity)
	}
}

func TestMedicineFromRow_Invalid(t *testing.T) {
	cases := []struct {
		name string
		row  []string
	}{
		{"missing name", []string{"", "", "500mg", "tablet", "", "1", "2"}},
		{"missing power", []string{"Napa", "", "", "tablet", "", "1", "2"}},
		{"missing prices", []string{"Napa", "", "500mg", "tablet"}},
		{"negative price", []string{"Napa", "", "500mg", "tablet", "", "-1", "2"}},
		{"bad stock", []string{"Napa", "", "500mg", "tablet", "", "1", "2", "lots"}},
		{"bad expiry", []string{"Napa", "", "500mg", "tablet", "", "1", "2", "5", "", "", "", "never", ""}},
	}

	for _, tc := range cases {
		if _, err := medicineFromRow(tc.row); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
