package pharmacy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

type mockMedicineRepo struct {
	meds map[uuid.UUID]*Medicine
}

func (m *mockMedicineRepo) Create(_ context.Context, med *Medicine) error {
	if med.ID == uuid.Nil {
		med.ID = uuid.New()
	}
	m.meds[med.ID] = med
	return nil
}

func (m *mockMedicineRepo) GetByID(_ context.Context, id uuid.UUID) (*Medicine, error) {
	med, ok := m.meds[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return med, nil
}

func (m *mockMedicineRepo) Update(_ context.Context, med *Medicine) error {
	m.meds[med.ID] = med
	return nil
}

func (m *mockMedicineRepo) List(_ context.Context, availableOnly bool, limit, offset int) ([]*Medicine, int, error) {
	var out []*Medicine
	for _, med := range m.meds {
		if availableOnly && !med.Available {
			continue
		}
		out = append(out, med)
	}
	return out, len(out), nil
}

type batchKey struct {
	medicineID uuid.UUID
	batch      string
}

type mockInventoryRepo struct {
	lines map[batchKey]*InventoryItem
}

func (m *mockInventoryRepo) AddStock(_ context.Context, item *InventoryItem) (*InventoryItem, error) {
	key := batchKey{item.MedicineID, item.BatchNumber}
	if existing, ok := m.lines[key]; ok {
		existing.Quantity += item.Quantity
		if item.ExpiresAt != nil {
			existing.ExpiresAt = item.ExpiresAt
		}
		return existing, nil
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	m.lines[key] = item
	return item, nil
}

func (m *mockInventoryRepo) ListByMedicine(_ context.Context, medicineID uuid.UUID) ([]*InventoryItem, error) {
	var out []*InventoryItem
	for _, i := range m.lines {
		if i.MedicineID == medicineID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *mockInventoryRepo) TotalQuantity(_ context.Context, medicineID uuid.UUID) (int, error) {
	n := 0
	for _, i := range m.lines {
		if i.MedicineID == medicineID {
			n += i.Quantity
		}
	}
	return n, nil
}

type mockOrderRepo struct {
	orders map[uuid.UUID]*Order
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockOrderRepo) List(_ context.Context, patientID *uuid.UUID, limit, offset int) ([]*Order, int, error) {
	var out []*Order
	for _, o := range m.orders {
		if patientID != nil && o.PatientID != *patientID {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to OrderStatus) (bool, error) {
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func newTestService() *Service {
	return NewService(
		&mockMedicineRepo{meds: map[uuid.UUID]*Medicine{}},
		&mockInventoryRepo{lines: map[batchKey]*InventoryItem{}},
		&mockOrderRepo{orders: map[uuid.UUID]*Order{}},
	)
}

func pharmacistIdent() *auth.Identity {
	return &auth.Identity{UserID: uuid.New(), Role: auth.RolePharmacist}
}

func patientIdent(patientID uuid.UUID) *auth.Identity {
	return &auth.Identity{UserID: uuid.New(), Role: auth.RolePatient, PatientID: &patientID}
}

func seedMedicine(t *testing.T, svc *Service) *Medicine {
	t.Helper()
	m, err := svc.CreateMedicine(context.Background(), &CreateMedicineRequest{Name: "paracetamol", Price: 2})
	if err != nil {
		t.Fatalf("CreateMedicine: %v", err)
	}
	return m
}

func TestAddStockAccumulatesByBatch(t *testing.T) {
	svc := newTestService()
	m := seedMedicine(t, svc)

	item, err := svc.AddStock(context.Background(), &AddStockRequest{
		MedicineID: m.ID, BatchNumber: "B-100", Quantity: 40,
	})
	if err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	if item.Quantity != 40 {
		t.Errorf("quantity = %d, want 40", item.Quantity)
	}

	// Same batch again merges into one line.
	item, err = svc.AddStock(context.Background(), &AddStockRequest{
		MedicineID: m.ID, BatchNumber: "B-100", Quantity: 60,
	})
	if err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	if item.Quantity != 100 {
		t.Errorf("merged quantity = %d, want 100", item.Quantity)
	}

	// A different batch creates a fresh line.
	if _, err := svc.AddStock(context.Background(), &AddStockRequest{
		MedicineID: m.ID, BatchNumber: "B-200", Quantity: 10,
	}); err != nil {
		t.Fatalf("AddStock: %v", err)
	}

	lines, err := svc.ListStock(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("ListStock: %v", err)
	}
	if len(lines) != 2 {
		t.Errorf("stock lines = %d, want 2", len(lines))
	}
}

func TestAddStockValidation(t *testing.T) {
	svc := newTestService()
	m := seedMedicine(t, svc)

	tests := []struct {
		name     string
		req      AddStockRequest
		wantKind apperr.Kind
	}{
		{"zero quantity", AddStockRequest{MedicineID: m.ID, BatchNumber: "B", Quantity: 0}, apperr.KindInvalid},
		{"negative quantity", AddStockRequest{MedicineID: m.ID, BatchNumber: "B", Quantity: -5}, apperr.KindInvalid},
		{"missing batch", AddStockRequest{MedicineID: m.ID, Quantity: 5}, apperr.KindInvalid},
		{"unknown medicine", AddStockRequest{MedicineID: uuid.New(), BatchNumber: "B", Quantity: 5}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddStock(context.Background(), &tt.req); !apperr.Is(err, tt.wantKind) {
				t.Errorf("got %v, want %v", err, tt.wantKind)
			}
		})
	}
}

func TestCreateOrder(t *testing.T) {
	svc := newTestService()
	m := seedMedicine(t, svc)
	patientID := uuid.New()

	o, err := svc.CreateOrder(context.Background(), patientIdent(patientID), &CreateOrderRequest{
		MedicineID: m.ID, Quantity: 2,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.Status != OrderPending {
		t.Errorf("status = %s, want pending", o.Status)
	}
	if o.PatientID != patientID {
		t.Error("order not bound to the ordering patient")
	}
}

func TestCreateOrderUnavailableMedicine(t *testing.T) {
	svc := newTestService()
	m := seedMedicine(t, svc)
	off := false
	if _, err := svc.UpdateMedicine(context.Background(), m.ID, &UpdateMedicineRequest{Available: &off}); err != nil {
		t.Fatalf("UpdateMedicine: %v", err)
	}

	_, err := svc.CreateOrder(context.Background(), patientIdent(uuid.New()), &CreateOrderRequest{
		MedicineID: m.ID, Quantity: 1,
	})
	if !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("unavailable medicine: got %v, want invalid", err)
	}
}

func TestOrderDispenseLifecycle(t *testing.T) {
	svc := newTestService()
	m := seedMedicine(t, svc)
	patientID := uuid.New()
	o, err := svc.CreateOrder(context.Background(), patientIdent(patientID), &CreateOrderRequest{
		MedicineID: m.ID, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	pharm := pharmacistIdent()
	o2, err := svc.UpdateOrderStatus(context.Background(), pharm, o.ID, &UpdateOrderStatusRequest{Status: OrderDispensed})
	if err != nil {
		t.Fatalf("dispense: %v", err)
	}
	if o2.Status != OrderDispensed {
		t.Errorf("status = %s", o2.Status)
	}

	// dispensed is terminal
	_, err = svc.UpdateOrderStatus(context.Background(), pharm, o.ID, &UpdateOrderStatusRequest{Status: OrderCancelled})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("transition from dispensed: got %v, want conflict", err)
	}
}

func TestPatientMayOnlyCancelOwnOrder(t *testing.T) {
	svc := newTestService()
	m := seedMedicine(t, svc)
	patientID := uuid.New()
	o, err := svc.CreateOrder(context.Background(), patientIdent(patientID), &CreateOrderRequest{
		MedicineID: m.ID, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	_, err = svc.UpdateOrderStatus(context.Background(), patientIdent(patientID), o.ID,
		&UpdateOrderStatusRequest{Status: OrderDispensed})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("patient dispensing: got %v, want forbidden", err)
	}

	other := uuid.New()
	_, err = svc.UpdateOrderStatus(context.Background(), patientIdent(other), o.ID,
		&UpdateOrderStatusRequest{Status: OrderCancelled})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("foreign patient cancelling: got %v, want forbidden", err)
	}

	if _, err := svc.UpdateOrderStatus(context.Background(), patientIdent(patientID), o.ID,
		&UpdateOrderStatusRequest{Status: OrderCancelled}); err != nil {
		t.Errorf("owner cancelling: %v", err)
	}
}

func TestListOrdersScoping(t *testing.T) {
	svc := newTestService()
	m := seedMedicine(t, svc)
	p1, p2 := uuid.New(), uuid.New()
	for _, pid := range []uuid.UUID{p1, p2, p2} {
		if _, err := svc.CreateOrder(context.Background(), patientIdent(pid), &CreateOrderRequest{
			MedicineID: m.ID, Quantity: 1,
		}); err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
	}

	_, total, err := svc.ListOrders(context.Background(), patientIdent(p2), 20, 0)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if total != 2 {
		t.Errorf("patient scope total = %d, want 2", total)
	}

	_, total, err = svc.ListOrders(context.Background(), pharmacistIdent(), 20, 0)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if total != 3 {
		t.Errorf("pharmacist scope total = %d, want 3", total)
	}
}
