package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller, resolved fresh from storage on every
// request. PatientID and DoctorID are set when the user owns the
// corresponding profile row; HospitalID is set for hospital-affiliated users.
type Identity struct {
	UserID     uuid.UUID
	Email      string
	Role       Role
	Active     bool
	PatientID  *uuid.UUID
	DoctorID   *uuid.UUID
	HospitalID *uuid.UUID
}

// UserResolver resolves a verified token subject to the current user record.
// The user package implements this; the indirection keeps auth free of a
// dependency on domain packages.
type UserResolver interface {
	ResolveByEmail(ctx context.Context, email string) (*Identity, error)
}

// Skipper reports whether a request should bypass authentication.
type Skipper func(c echo.Context) bool

// publicPaths lists URL paths that must be reachable without credentials:
// health checks and the register/login endpoints that mint the credentials
// in the first place.
var publicPaths = map[string]bool{
	"/health":                true,
	"/health/db":             true,
	"/api/v1/auth/register":  true,
	"/api/v1/auth/login":     true,
}

// DefaultSkipper skips authentication for public infrastructure and auth
// bootstrap endpoints.
func DefaultSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// Middleware authenticates every request: it extracts the bearer token,
// verifies the signature and expiry, then re-resolves the user by the token
// subject. The token is never enough on its own: the embedded role can
// be stale, so the stored role and active flag are what authorize the
// request. A role change or deactivation takes effect on the next request,
// not the next login.
func Middleware(issuer *TokenIssuer, resolver UserResolver, skipper Skipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return apperr.Unauthenticated("missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return apperr.Unauthenticated("invalid authorization format")
			}

			subject, _, err := issuer.Verify(parts[1])
			if err != nil {
				return err
			}

			ident, err := resolver.ResolveByEmail(c.Request().Context(), subject)
			if err != nil {
				return apperr.Unauthenticated("could not validate credentials")
			}
			if !ident.Active {
				return apperr.Unauthenticated("account is deactivated")
			}

			ctx := context.WithValue(c.Request().Context(), identityKey, ident)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// IdentityFromContext returns the authenticated caller, or nil on
// unauthenticated requests.
func IdentityFromContext(ctx context.Context) *Identity {
	ident, _ := ctx.Value(identityKey).(*Identity)
	return ident
}

// WithIdentity places an identity on the context. Tests use this to simulate
// an authenticated request without running the middleware.
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}
