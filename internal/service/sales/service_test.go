package sales

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/supto/pharmacy-buddy/internal/domain/apperr"
	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/repository/mongodb"
)

type fakeLedger struct {
	medicines map[primitive.ObjectID]*models.Medicine

	insertErrs []error
	inserted   []*models.Sale

	decrementFailAt int
	decrementErr    error
	decrements      int
	increments      []int64
}

func newFakeLedger(medicines ...*models.Medicine) *fakeLedger {
	l := &fakeLedger{
		medicines:       make(map[primitive.ObjectID]*models.Medicine),
		decrementFailAt: -1,
	}
	for _, m := range medicines {
		l.medicines[m.ID] = m
	}
	return l
}

func (l *fakeLedger) GetMedicine(_ context.Context, id primitive.ObjectID) (*models.Medicine, error) {
	m, ok := l.medicines[id]
	if !ok {
		return nil, apperr.NotFoundf("medicine %s not found", id.Hex())
	}
	copied := *m
	return &copied, nil
}

func (l *fakeLedger) DecrementStock(_ context.Context, id primitive.ObjectID, qty int64) error {
	if l.decrements == l.decrementFailAt {
		l.decrements++
		return l.decrementErr
	}
	l.decrements++
	m, ok := l.medicines[id]
	if !ok {
		return apperr.NotFoundf("medicine %s not found", id.Hex())
	}
	if m.StockQuantity < qty {
		return apperr.ErrStockConflict
	}
	m.StockQuantity -= qty
	return nil
}

func (l *fakeLedger) IncrementStock(_ context.Context, id primitive.ObjectID, qty int64) error {
	l.increments = append(l.increments, qty)
	if m, ok := l.medicines[id]; ok {
		m.StockQuantity += qty
	}
	return nil
}

func (l *fakeLedger) InsertSale(_ context.Context, sale *models.Sale) error {
	if len(l.insertErrs) > 0 {
		err := l.insertErrs[0]
		l.insertErrs = l.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	l.inserted = append(l.inserted, sale)
	return nil
}

type recordedEvent struct {
	room  string
	event string
}

type fakeNotifier struct {
	events []recordedEvent
}

func (n *fakeNotifier) Publish(room, event string, _ any) {
	n.events = append(n.events, recordedEvent{room: room, event: event})
}

func testActor() models.Actor {
	return models.Actor{
		ID:          primitive.NewObjectID(),
		DisplayName: "Test Seller",
		Email:       "seller@example.com",
		Role:        models.RoleStaff,
	}
}

func testMedicine(stock int64) *models.Medicine {
	return &models.Medicine{
		ID:            primitive.NewObjectID(),
		Name:          "Napa",
		Power:         "500mg",
		PurchasePrice: 60,
		SellingPrice:  100,
		StockQuantity: stock,
		IsActive:      true,
	}
}

func TestRecordSale_HappyPath(t *testing.T) {
	medicine := testMedicine(5)
	ledger := newFakeLedger(medicine)
	notifier := &fakeNotifier{}
	svc := NewService(ledger, notifier, nil)

	sale, err := svc.RecordSale(context.Background(), testActor(), models.SaleRequest{
		Items: []models.SaleRequestLine{{MedicineID: medicine.ID.Hex(), Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sale.TotalAmount != 300 {
		t.Errorf("expected total amount 300, got %v", sale.TotalAmount)
	}
	if sale.TotalProfit != 120 {
		t.Errorf("expected profit 120, got %v", sale.TotalProfit)
	}
	if sale.FinalAmount != 300 {
		t.Errorf("expected final amount 300, got %v", sale.FinalAmount)
	}
	if medicine.StockQuantity != 2 {
		t.Errorf("expected stock 2 after sale, got %d", medicine.StockQuantity)
	}
	if sale.PaymentMethod != "cash" {
		t.Errorf("expected default payment method cash, got %q", sale.PaymentMethod)
	}
	if len(ledger.inserted) != 1 {
		t.Fatalf("expected 1 inserted sale, got %d", len(ledger.inserted))
	}
}

func TestRecordSale_DiscountAndExtraCharge(t *testing.T) {
	medicine := testMedicine(10)
	ledger := newFakeLedger(medicine)
	svc := NewService(ledger, nil, nil)

	sale, err := svc.RecordSale(context.Background(), testActor(), models.SaleRequest{
		Items:       []models.SaleRequestLine{{MedicineID: medicine.ID.Hex(), Quantity: 2}},
		Discount:    15,
		ExtraCharge: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2 * 100 - 15 + 5
	if sale.FinalAmount != 190 {
		t.Errorf("expected final amount 190, got %v", sale.FinalAmount)
	}
	// 2 * (100 - 60) - 15 + 5
	if sale.TotalProfit != 70 {
		t.Errorf("expected adjusted profit 70, got %v", sale.TotalProfit)
	}
	if sale.TotalAmount != 200 {
		t.Errorf("expected total amount 200, got %v", sale.TotalAmount)
	}
}

func TestRecordSale_InsufficientStockRejectsWholeRequest(t *testing.T) {
	inStock := testMedicine(10)
	outOfStock := testMedicine(1)
	ledger := newFakeLedger(inStock, outOfStock)
	svc := NewService(ledger, nil, nil)

	_, err := svc.RecordSale(context.Background(), testActor(), models.SaleRequest{
		Items: []models.SaleRequestLine{
			{MedicineID: inStock.ID.Hex(), Quantity: 2},
			{MedicineID: outOfStock.ID.Hex(), Quantity: 3},
		},
	})

	var stockErr *apperr.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	if stockErr.Available != 1 {
		t.Errorf("expected available 1, got %d", stockErr.Available)
	}
	if inStock.StockQuantity != 10 {
		t.Errorf("expected untouched stock 10, got %d", inStock.StockQuantity)
	}
	if ledger.decrements != 0 {
		t.Errorf("expected no decrements for a rejected request, got %d", ledger.decrements)
	}
	if len(ledger.inserted) != 0 {
		t.Errorf("expected no persisted sale, got %d", len(ledger.inserted))
	}
}

func TestRecordSale_SecondSaleDrainsStock(t *testing.T) {
	medicine := testMedicine(5)
	ledger := newFakeLedger(medicine)
	svc := NewService(ledger, nil, nil)

	first := models.SaleRequest{Items: []models.SaleRequestLine{{MedicineID: medicine.ID.Hex(), Quantity: 3}}}
	if _, err := svc.RecordSale(context.Background(), testActor(), first); err != nil {
		t.Fatalf("first sale failed: %v", err)
	}

	_, err := svc.RecordSale(context.Background(), testActor(), first)
	var stockErr *apperr.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected insufficient stock on second sale, got %v", err)
	}
	if stockErr.Available != 2 {
		t.Errorf("expected available 2, got %d", stockErr.Available)
	}
}

func TestRecordSale_MidCommitConflictRollsBack(t *testing.T) {
	first := testMedicine(10)
	second := testMedicine(10)
	ledger := newFakeLedger(first, second)
	ledger.decrementFailAt = 1
	ledger.decrementErr = apperr.ErrStockConflict
	svc := NewService(ledger, nil, nil)

	_, err := svc.RecordSale(context.Background(), testActor(), models.SaleRequest{
		Items: []models.SaleRequestLine{
			{MedicineID: first.ID.Hex(), Quantity: 4},
			{MedicineID: second.ID.Hex(), Quantity: 4},
		},
	})

	var stockErr *apperr.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected insufficient stock error after lost race, got %v", err)
	}
	if len(ledger.increments) != 1 || ledger.increments[0] != 4 {
		t.Errorf("expected one compensating increment of 4, got %v", ledger.increments)
	}
	if first.StockQuantity != 10 {
		t.Errorf("expected first medicine restored to 10, got %d", first.StockQuantity)
	}
	if len(ledger.inserted) != 0 {
		t.Errorf("expected no persisted sale, got %d", len(ledger.inserted))
	}
}

func TestRecordSale_PersistFailureRollsBackEverything(t *testing.T) {
	medicine := testMedicine(10)
	ledger := newFakeLedger(medicine)
	ledger.insertErrs = []error{errors.New("mongo down")}
	svc := NewService(ledger, nil, nil)

	_, err := svc.RecordSale(context.Background(), testActor(), models.SaleRequest{
		Items: []models.SaleRequestLine{{MedicineID: medicine.ID.Hex(), Quantity: 3}},
	})
	if err == nil {
		t.Fatal("expected error when persistence fails")
	}
	if medicine.StockQuantity != 10 {
		t.Errorf("expected stock restored to 10, got %d", medicine.StockQuantity)
	}
}

func TestRecordSale_DuplicateInvoiceRetriesOnce(t *testing.T) {
	medicine := testMedicine(10)
	ledger := newFakeLedger(medicine)
	ledger.insertErrs = []error{mongodb.ErrDuplicateInvoice, nil}
	svc := NewService(ledger, nil, nil)

	invoices := []string{"INV-260901-AAAAAAAA", "INV-260901-BBBBBBBB"}
	svc.invoice = func(time.Time) string {
		next := invoices[0]
		invoices = invoices[1:]
		return next
	}

	sale, err := svc.RecordSale(context.Background(), testActor(), models.SaleRequest{
		Items: []models.SaleRequestLine{{MedicineID: medicine.ID.Hex(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sale.InvoiceNumber != "INV-260901-BBBBBBBB" {
		t.Errorf("expected regenerated invoice, got %q", sale.InvoiceNumber)
	}
}

func TestRecordSale_ValidationErrors(t *testing.T) {
	medicine := testMedicine(10)
	ledger := newFakeLedger(medicine)
	svc := NewService(ledger, nil, nil)
	actor := testActor()

	cases := []struct {
		name string
		req  models.SaleRequest
	}{
		{"empty basket", models.SaleRequest{}},
		{"zero quantity", models.SaleRequest{
			Items: []models.SaleRequestLine{{MedicineID: medicine.ID.Hex(), Quantity: 0}},
		}},
		{"negative discount", models.SaleRequest{
			Items:    []models.SaleRequestLine{{MedicineID: medicine.ID.Hex(), Quantity: 1}},
			Discount: -1,
		}},
		{"negative extra charge", models.SaleRequest{
			Items:       []models.SaleRequestLine{{MedicineID: medicine.ID.Hex(), Quantity: 1}},
			ExtraCharge: -1,
		}},
		{"malformed medicine id", models.SaleRequest{
			Items: []models.SaleRequestLine{{MedicineID: "not-an-id", Quantity: 1}},
		}},
	}

	for _, tc := range cases {
		_, err := svc.RecordSale(context.Background(), actor, tc.req)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
		if ledger.decrements != 0 {
			t.Errorf("%s: expected no stock mutation, got %d decrements", tc.name, ledger.decrements)
		}
	}
}

func TestRecordSale_PublishesDashboardEvents(t *testing.T) {
	medicine := testMedicine(10)
	ledger := newFakeLedger(medicine)
	notifier := &fakeNotifier{}
	svc := NewService(ledger, notifier, nil)

	_, err := svc.RecordSale(context.Background(), testActor(), models.SaleRequest{
		Items: []models.SaleRequestLine{{MedicineID: medicine.ID.Hex(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notifier.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(notifier.events))
	}
	if notifier.events[0].event != "sale-created" {
		t.Errorf("expected sale-created first, got %q", notifier.events[0].event)
	}
	if notifier.events[1].event != "stock-updated" {
		t.Errorf("expected stock-updated second, got %q", notifier.events[1].event)
	}
}

func TestNewInvoiceNumber_Format(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	invoice := newInvoiceNumber(now)

	pattern := regexp.MustCompile(`^INV-260901-[0-9A-F]{8}$`)
	if !pattern.MatchString(invoice) {
		t.Errorf("invoice %q does not match expected format", invoice)
	}

	if other := newInvoiceNumber(now); other == invoice {
		t.Errorf("expected distinct invoice numbers, got %q twice", invoice)
	}
}
