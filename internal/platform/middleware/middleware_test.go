package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
)

func TestRequestIDGenerated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got string
	handler := RequestID()(func(c echo.Context) error {
		got, _ = c.Get("request_id").(string)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got == "" {
		t.Fatal("no request id set on context")
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("generated id %q is not a uuid", got)
	}
	if hdr := rec.Header().Get(echo.HeaderXRequestID); hdr != got {
		t.Errorf("response header %q != context id %q", hdr, got)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "caller-supplied-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequestID()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := rec.Header().Get(echo.HeaderXRequestID); got != "caller-supplied-id" {
		t.Errorf("request id = %q, want caller-supplied-id", got)
	}
}

func TestRecoveryConvertsPanic(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Recovery(zerolog.Nop())(func(c echo.Context) error {
		panic("boom")
	})
	err := handler(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusInternalServerError {
		t.Fatalf("panic produced %v, want 500 HTTPError", err)
	}
}

func TestLoggerPassesThroughError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	sentinel := errors.New("downstream failure")
	handler := Logger(zerolog.Nop())(func(c echo.Context) error {
		return sentinel
	})
	if err := handler(c); !errors.Is(err, sentinel) {
		t.Errorf("logger swallowed the handler error: got %v", err)
	}
}

func TestAuditRecordsAPIAccess(t *testing.T) {
	e := echo.New()
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{
		UserID: userID,
		Email:  "doc@example.com",
		Role:   auth.RoleDoctor,
		Active: true,
	}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "rid-1")

	var entry AuditEntry
	recorder := AuditRecorderFunc(func(e AuditEntry) error {
		entry = e
		return nil
	})
	handler := Audit(zerolog.Nop(), recorder)(func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if entry.UserID != userID.String() {
		t.Errorf("user_id = %q, want %q", entry.UserID, userID)
	}
	if entry.UserRole != "doctor" {
		t.Errorf("user_role = %q, want doctor", entry.UserRole)
	}
	if entry.Resource != "appointments" {
		t.Errorf("resource = %q, want appointments", entry.Resource)
	}
	if entry.Action != "create" {
		t.Errorf("action = %q, want create", entry.Action)
	}
	if entry.RequestID != "rid-1" {
		t.Errorf("request_id = %q, want rid-1", entry.RequestID)
	}
	if entry.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", entry.StatusCode)
	}
}

func TestAuditSkipsNonAPIPaths(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	recorder := AuditRecorderFunc(func(AuditEntry) error {
		called = true
		return nil
	})
	handler := Audit(zerolog.Nop(), recorder)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if called {
		t.Error("audit recorded a non-API path")
	}
}

func TestMethodToAction(t *testing.T) {
	tests := map[string]string{
		http.MethodGet:    "read",
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}
	for method, want := range tests {
		if got := methodToAction(method); got != want {
			t.Errorf("methodToAction(%s) = %q, want %q", method, got, want)
		}
	}
}
