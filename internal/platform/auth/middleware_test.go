package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
)

type stubResolver struct {
	users map[string]*Identity
}

func (r *stubResolver) ResolveByEmail(_ context.Context, email string) (*Identity, error) {
	ident, ok := r.users[email]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return ident, nil
}

func newAuthTest(t *testing.T) (*TokenIssuer, *stubResolver, echo.HandlerFunc) {
	t.Helper()
	issuer := NewTokenIssuer("test-secret", time.Minute)
	resolver := &stubResolver{users: map[string]*Identity{}}
	handler := func(c echo.Context) error {
		ident := IdentityFromContext(c.Request().Context())
		if ident == nil {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, ident.Email)
	}
	return issuer, resolver, handler
}

func invoke(issuer *TokenIssuer, resolver *stubResolver, handler echo.HandlerFunc, req *http.Request) error {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(req.URL.Path)
	return Middleware(issuer, resolver, DefaultSkipper)(handler)(c)
}

func TestMiddlewareValidToken(t *testing.T) {
	issuer, resolver, handler := newAuthTest(t)
	resolver.users["alice@example.com"] = &Identity{
		UserID: uuid.New(),
		Email:  "alice@example.com",
		Role:   RoleDoctor,
		Active: true,
	}

	token, err := issuer.Issue("alice@example.com", RoleDoctor)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if err := invoke(issuer, resolver, handler, req); err != nil {
		t.Fatalf("middleware: %v", err)
	}
}

func TestMiddlewareMissingHeader(t *testing.T) {
	issuer, resolver, handler := newAuthTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	err := invoke(issuer, resolver, handler, req)
	if !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("got %v, want unauthenticated", err)
	}
}

func TestMiddlewareMalformedHeader(t *testing.T) {
	issuer, resolver, handler := newAuthTest(t)

	for _, header := range []string{"Bearer", "Basic abc", "token-without-scheme"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
		req.Header.Set("Authorization", header)
		err := invoke(issuer, resolver, handler, req)
		if !apperr.Is(err, apperr.KindUnauthenticated) {
			t.Errorf("header %q: got %v, want unauthenticated", header, err)
		}
	}
}

func TestMiddlewareUnknownSubject(t *testing.T) {
	issuer, resolver, handler := newAuthTest(t)

	token, err := issuer.Issue("ghost@example.com", RolePatient)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	err = invoke(issuer, resolver, handler, req)
	if !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("deleted user: got %v, want unauthenticated", err)
	}
}

func TestMiddlewareDeactivatedUser(t *testing.T) {
	issuer, resolver, handler := newAuthTest(t)
	resolver.users["off@example.com"] = &Identity{
		UserID: uuid.New(),
		Email:  "off@example.com",
		Role:   RolePatient,
		Active: false,
	}

	token, err := issuer.Issue("off@example.com", RolePatient)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	err = invoke(issuer, resolver, handler, req)
	if !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("deactivated user: got %v, want unauthenticated", err)
	}
}

// A role change in storage takes effect on the next request even when the
// token still carries the old role.
func TestMiddlewareStaleRoleClaim(t *testing.T) {
	issuer, resolver, handler := newAuthTest(t)
	resolver.users["demoted@example.com"] = &Identity{
		UserID: uuid.New(),
		Email:  "demoted@example.com",
		Role:   RolePatient, // stored role, changed since issuance
		Active: true,
	}

	token, err := issuer.Issue("demoted@example.com", RoleSystemAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(req.URL.Path)

	gated := Middleware(issuer, resolver, DefaultSkipper)(RequireRole(RoleSystemAdmin)(handler))
	err = gated(c)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("stale admin claim: got %v, want forbidden", err)
	}
}

func TestMiddlewareSkipsPublicPaths(t *testing.T) {
	issuer, resolver, handler := newAuthTest(t)

	for _, path := range []string{"/health", "/api/v1/auth/login", "/api/v1/auth/register"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if err := invoke(issuer, resolver, handler, req); err != nil {
			t.Errorf("public path %s: %v", path, err)
		}
	}
}
