package lab

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

// TxRunner runs fn inside a transaction carried on the context. Recording a
// result writes two rows; both land or neither does.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	tests   TestRepository
	orders  OrderRepository
	results ResultRepository
	runTx   TxRunner
}

func NewService(tests TestRepository, orders OrderRepository, results ResultRepository, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{tests: tests, orders: orders, results: results, runTx: runTx}
}

// -- Test catalog --

func (s *Service) CreateTest(ctx context.Context, req *CreateTestRequest) (*Test, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Invalid("name is required")
	}
	if req.Price < 0 {
		return nil, apperr.Invalid("price cannot be negative")
	}
	t := &Test{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Active:      true,
	}
	if err := s.tests.Create(ctx, t); err != nil {
		return nil, apperr.Internal(err, "creating lab test")
	}
	return t, nil
}

func (s *Service) GetTest(ctx context.Context, id uuid.UUID) (*Test, error) {
	t, err := s.tests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("lab test not found")
		}
		return nil, apperr.Internal(err, "fetching lab test")
	}
	return t, nil
}

func (s *Service) UpdateTest(ctx context.Context, id uuid.UUID, req *UpdateTestRequest) (*Test, error) {
	t, err := s.GetTest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperr.Invalid("name cannot be empty")
		}
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, apperr.Invalid("price cannot be negative")
		}
		t.Price = *req.Price
	}
	if req.Active != nil {
		t.Active = *req.Active
	}
	if err := s.tests.Update(ctx, t); err != nil {
		return nil, apperr.Internal(err, "updating lab test")
	}
	return t, nil
}

// ListTests shows staff the full catalog; everyone else only active entries.
func (s *Service) ListTests(ctx context.Context, ident *auth.Identity, limit, offset int) ([]*Test, int, error) {
	activeOnly := true
	switch ident.Role {
	case auth.RoleSystemAdmin, auth.RoleHospitalAdmin, auth.RoleLabTechnician:
		activeOnly = false
	}
	items, total, err := s.tests.List(ctx, activeOnly, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "listing lab tests")
	}
	return items, total, nil
}

// -- Orders --

// CreateOrder books a test. A patient books for themselves; doctors and
// staff must name the patient. The test must exist and be active.
func (s *Service) CreateOrder(ctx context.Context, ident *auth.Identity, req *CreateOrderRequest) (*Order, error) {
	if req.TestID == uuid.Nil {
		return nil, apperr.Invalid("test_id is required")
	}
	if req.ScheduledAt.IsZero() {
		return nil, apperr.Invalid("scheduled_at is required")
	}

	t, err := s.GetTest(ctx, req.TestID)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, apperr.Invalid("lab test %s is not currently offered", t.Name)
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
		PatientID:   patientID,
		TestID:      req.TestID,
		OrderedByID: ident.DoctorID,
		Status:      StatusPending,
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, apperr.Internal(err, "creating lab order")
	}
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, ident *auth.Identity, id uuid.UUID) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("lab order not found")
		}
		return nil, apperr.Internal(err, "fetching lab order")
	}
	if !ident.AllowsPatientRecord(o.PatientID) {
		return nil, apperr.Forbidden("not permitted to view this lab order")
	}
	return o, nil
}

// ListOrders is scoped: a patient sees only their own orders.
func (s *Service) ListOrders(ctx context.Context, ident *auth.Identity, status OrderStatus, limit, offset int) ([]*Order, int, error) {
	if status != "" && !validOrderStatuses[status] {
		return nil, 0, apperr.Invalid("invalid status: %s", status)
	}
	f := OrderFilter{Status: status}
	if ident.Role == auth.RolePatient {
		if ident.PatientID == nil {
			return []*Order{}, 0, nil
		}
		f.PatientID = ident.PatientID
	}
	items, total, err := s.orders.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "listing lab orders")
	}
	return items, total, nil
}

// UpdateOrderStatus applies one lifecycle transition. The repository pins
// the current status, so a lost race reports the state actually collided
// with instead of silently overwriting.
func (s *Service) UpdateOrderStatus(ctx context.Context, ident *auth.Identity, id uuid.UUID, req *UpdateOrderStatusRequest) (*Order, error) {
	if !validOrderStatuses[req.Status] {
		return nil, apperr.Invalid("invalid status: %s", req.Status)
	}
	o, err := s.GetOrder(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	// Patients may cancel their own open order but nothing else.
	if ident.Role == auth.RolePatient && req.Status != StatusCancelled {
		return nil, apperr.Forbidden("patients may only cancel lab orders")
	}
	// Only the lab bench moves an order forward; other roles may cancel.
	if req.Status != StatusCancelled && ident.Role != auth.RoleLabTechnician {
		return nil, apperr.Forbidden("only a lab technician may process lab orders")
	}

	if !canTransition(o.Status, req.Status) {
		return nil, apperr.Conflict("cannot move a %s order to %s", o.Status, req.Status)
	}

	changed, err := s.orders.UpdateStatus(ctx, id, o.Status, req.Status)
	if err != nil {
		return nil, apperr.Internal(err, "updating lab order")
	}
	if !changed {
		current, refetchErr := s.orders.GetByID(ctx, id)
		if refetchErr != nil {
			return nil, apperr.Internal(refetchErr, "fetching lab order")
		}
		return nil, apperr.Conflict("lab order is already %s", current.Status)
	}
	updated, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "fetching lab order")
	}
	return updated, nil
}

// Reschedule gives the order a new slot and resets it to pending, whatever
// its current state. A completed order is rerun from scratch; only a
// cancelled order is final and cannot come back.
func (s *Service) Reschedule(ctx context.Context, ident *auth.Identity, id uuid.UUID, req *RescheduleRequest) (*Order, error) {
	if req.ScheduledAt.IsZero() {
		return nil, apperr.Invalid("scheduled_at is required")
	}
	if req.ScheduledAt.Before(time.Now()) {
		return nil, apperr.Invalid("scheduled_at must be in the future")
	}
	if _, err := s.GetOrder(ctx, ident, id); err != nil {
		return nil, err
	}

	changed, err := s.orders.Reschedule(ctx, id, req.ScheduledAt)
	if err != nil {
		return nil, apperr.Internal(err, "rescheduling lab order")
	}
	if !changed {
		return nil, apperr.Conflict("a cancelled lab order cannot be rescheduled")
	}
	updated, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "fetching lab order")
	}
	return updated, nil
}

// -- Results and reports --

// RecordResult attaches findings to an in-progress order and completes it in
// one step.
func (s *Service) RecordResult(ctx context.Context, ident *auth.Identity, orderID uuid.UUID, req *RecordResultRequest) (*Result, error) {
	if strings.TrimSpace(req.Findings) == "" {
		return nil, apperr.Invalid("findings are required")
	}
	o, err := s.GetOrder(ctx, ident, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusInProgress {
		return nil, apperr.Conflict("results can only be recorded for an in-progress order, not %s", o.Status)
	}

	res := &Result{
		OrderID:    orderID,
		Findings:   strings.TrimSpace(req.Findings),
		Remarks:    req.Remarks,
		RecordedBy: ident.UserID,
	}
	// The result row and the completion land in one transaction: if another
	// writer moved the order first, the result must not survive on its own.
	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.results.Create(ctx, res); err != nil {
			return apperr.Internal(err, "recording lab result")
		}
		changed, err := s.orders.UpdateStatus(ctx, orderID, StatusInProgress, StatusCompleted)
		if err != nil {
			return apperr.Internal(err, "completing lab order")
		}
		if !changed {
			return apperr.Conflict("lab order changed while recording the result")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Report returns the full report for a completed order. Orders in any other
// state have no report yet.
func (s *Service) Report(ctx context.Context, ident *auth.Identity, orderID uuid.UUID) (*Report, error) {
	o, err := s.GetOrder(ctx, ident, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusCompleted {
		return nil, apperr.Conflict("no report available for a %s lab order", o.Status)
	}
	t, err := s.GetTest(ctx, o.TestID)
	if err != nil {
		return nil, err
	}
	res, err := s.results.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("no result recorded for this lab order")
		}
		return nil, apperr.Internal(err, "fetching lab result")
	}
	return &Report{Order: o, Test: t, Result: res}, nil
}
