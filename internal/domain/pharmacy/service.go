package pharmacy

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

type Service struct {
	medicines MedicineRepository
	inventory InventoryRepository
	orders    OrderRepository
}

func NewService(medicines MedicineRepository, inventory InventoryRepository, orders OrderRepository) *Service {
	return &Service{medicines: medicines, inventory: inventory, orders: orders}
}

// -- Medicines --

func (s *Service) CreateMedicine(ctx context.Context, req *CreateMedicineRequest) (*Medicine, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Invalid("name is required")
	}
	if req.Price < 0 {
		return nil, apperr.Invalid("price cannot be negative")
	}
	m := &Medicine{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Available:   true,
	}
	if err := s.medicines.Create(ctx, m); err != nil {
		return nil, apperr.Internal(err, "creating medicine")
	}
	return m, nil
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	m, err := s.medicines.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("medicine not found")
		}
		return nil, apperr.Internal(err, "fetching medicine")
	}
	return m, nil
}

func (s *Service) UpdateMedicine(ctx context.Context, id uuid.UUID, req *UpdateMedicineRequest) (*Medicine, error) {
	m, err := s.GetMedicine(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperr.Invalid("name cannot be empty")
		}
		m.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, apperr.Invalid("price cannot be negative")
		}
		m.Price = *req.Price
	}
	if req.Available != nil {
		m.Available = *req.Available
	}
	if err := s.medicines.Update(ctx, m); err != nil {
		return nil, apperr.Internal(err, "updating medicine")
	}
	return m, nil
}

// ListMedicines shows pharmacy staff the full catalog; everyone else only
// medicines currently on sale.
func (s *Service) ListMedicines(ctx context.Context, ident *auth.Identity, limit, offset int) ([]*Medicine, int, error) {
	availableOnly := true
	switch ident.Role {
	case auth.RoleSystemAdmin, auth.RoleHospitalAdmin, auth.RolePharmacist:
		availableOnly = false
	}
	items, total, err := s.medicines.List(ctx, availableOnly, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "listing medicines")
	}
	return items, total, nil
}

// -- Inventory --

// AddStock merges the quantity into the (medicine, batch) stock line. The
// medicine must exist and the quantity must be positive.
func (s *Service) AddStock(ctx context.Context, req *AddStockRequest) (*InventoryItem, error) {
	if req.MedicineID == uuid.Nil {
		return nil, apperr.Invalid("medicine_id is required")
	}
	if strings.TrimSpace(req.BatchNumber) == "" {
		return nil, apperr.Invalid("batch_number is required")
	}
	if req.Quantity <= 0 {
		return nil, apperr.Invalid("quantity must be positive")
	}
	if _, err := s.GetMedicine(ctx, req.MedicineID); err != nil {
		return nil, err
	}

	item, err := s.inventory.AddStock(ctx, &InventoryItem{
		MedicineID:  req.MedicineID,
		BatchNumber: strings.TrimSpace(req.BatchNumber),
		Quantity:    req.Quantity,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		return nil, apperr.Internal(err, "adding stock")
	}
	return item, nil
}

func (s *Service) ListStock(ctx context.Context, medicineID uuid.UUID) ([]*InventoryItem, error) {
	if _, err := s.GetMedicine(ctx, medicineID); err != nil {
		return nil, err
	}
	items, err := s.inventory.ListByMedicine(ctx, medicineID)
	if err != nil {
		return nil, apperr.Internal(err, "listing stock")
	}
	return items, nil
}

// -- Orders --

// CreateOrder places a medicine order. The medicine must be on sale and the
// quantity positive; a patient orders for themselves.
func (s *Service) CreateOrder(ctx context.Context, ident *auth.Identity, req *CreateOrderRequest) (*Order, error) {
	if req.MedicineID == uuid.Nil {
		return nil, apperr.Invalid("medicine_id is required")
	}
	if req.Quantity <= 0 {
		return nil, apperr.Invalid("quantity must be positive")
	}
	m, err := s.GetMedicine(ctx, req.MedicineID)
	if err != nil {
		return nil, err
	}
	if !m.Available {
		return nil, apperr.Invalid("medicine %s is not currently available", m.Name)
	}

	var patientID uuid.UUID
	if ident.Role == auth.RolePatient {
		if ident.PatientID == nil {
			return nil, apperr.Forbidden("no patient profile for this account")
		}
		patientID = *ident.PatientID
	} else {
		if req.PatientID == nil || *req.PatientID == uuid.Nil {
			return nil, apperr.Invalid("patient_id is required")
		}
		patientID = *req.PatientID
	}

	o := &Order{
		PatientID:  patientID,
		MedicineID: req.MedicineID,
		Quantity:   req.Quantity,
		Status:     OrderPending,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, apperr.Internal(err, "creating pharmacy order")
	}
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, ident *auth.Identity, id uuid.UUID) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("pharmacy order not found")
		}
		return nil, apperr.Internal(err, "fetching pharmacy order")
	}
	if !ident.AllowsPatientRecord(o.PatientID) {
		return nil, apperr.Forbidden("not permitted to view this pharmacy order")
	}
	return o, nil
}

// ListOrders is scoped: patients see only their own orders.
func (s *Service) ListOrders(ctx context.Context, ident *auth.Identity, limit, offset int) ([]*Order, int, error) {
	var patientID *uuid.UUID
	if ident.Role == auth.RolePatient {
		if ident.PatientID == nil {
			return []*Order{}, 0, nil
		}
		patientID = ident.PatientID
	}
	items, total, err := s.orders.List(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "listing pharmacy orders")
	}
	return items, total, nil
}

// UpdateOrderStatus moves a pending order to dispensed or cancelled. A
// patient may only cancel their own pending order.
func (s *Service) UpdateOrderStatus(ctx context.Context, ident *auth.Identity, id uuid.UUID, req *UpdateOrderStatusRequest) (*Order, error) {
	if !validOrderStatuses[req.Status] {
		return nil, apperr.Invalid("invalid status: %s", req.Status)
	}
	if req.Status == OrderPending {
		return nil, apperr.Invalid("cannot transition back to pending")
	}
	if _, err := s.GetOrder(ctx, ident, id); err != nil {
		return nil, err
	}
	if ident.Role == auth.RolePatient && req.Status != OrderCancelled {
		return nil, apperr.Forbidden("patients may only cancel pharmacy orders")
	}

	changed, err := s.orders.UpdateStatus(ctx, id, OrderPending, req.Status)
	if err != nil {
		return nil, apperr.Internal(err, "updating pharmacy order")
	}
	if !changed {
		current, refetchErr := s.orders.GetByID(ctx, id)
		if refetchErr != nil {
			return nil, apperr.Internal(refetchErr, "fetching pharmacy order")
		}
		return nil, apperr.Conflict("pharmacy order is already %s", current.Status)
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "fetching pharmacy order")
	}
	return o, nil
}
