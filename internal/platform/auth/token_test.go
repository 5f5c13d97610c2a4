package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hms/hms/internal/platform/apperr"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)

	token, err := issuer.Issue("alice@example.com", RoleDoctor)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	subject, role, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if subject != "alice@example.com" {
		t.Errorf("subject = %q, want alice@example.com", subject)
	}
	if role != RoleDoctor {
		t.Errorf("role = %q, want %q", role, RoleDoctor)
	}
}

func TestTokenDefaultTTL(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 0)
	if issuer.ttl != DefaultTokenTTL {
		t.Errorf("ttl = %v, want %v", issuer.ttl, DefaultTokenTTL)
	}
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)

	// Sign an already-expired token with the issuer's own secret.
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "bob@example.com",
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		},
		Role: string(RolePatient),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, _, err := issuer.Verify(token); !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("expired token: got %v, want unauthenticated", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Minute)
	other := NewTokenIssuer("secret-b", time.Minute)

	token, err := issuer.Issue("carol@example.com", RoleLabTechnician)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, _, err := other.Verify(token); !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("wrong secret: got %v, want unauthenticated", err)
	}
}

func TestTokenTampered(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)

	token, err := issuer.Issue("dave@example.com", RolePatient)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tampered := token[:len(token)-4] + "AAAA"
	if _, _, err := issuer.Verify(tampered); !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("tampered token: got %v, want unauthenticated", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, _, err := issuer.Verify(tok); !apperr.Is(err, apperr.KindUnauthenticated) {
			t.Errorf("Verify(%q): got %v, want unauthenticated", tok, err)
		}
	}
}

func TestTokenMissingSubject(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)

	token, err := issuer.Issue("", RolePatient)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, _, err := issuer.Verify(token); !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("subjectless token: got %v, want unauthenticated", err)
	}
}

func TestIssueWithoutSecret(t *testing.T) {
	issuer := NewTokenIssuer("", time.Minute)
	if _, err := issuer.Issue("eve@example.com", RolePatient); err == nil {
		t.Error("expected error issuing token with empty secret")
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles {
		got, err := ParseRole(string(r))
		if err != nil || got != r {
			t.Errorf("ParseRole(%q) = %q, %v", r, got, err)
		}
	}
	if _, err := ParseRole("superuser"); !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("ParseRole(superuser): got %v, want invalid", err)
	}
}
