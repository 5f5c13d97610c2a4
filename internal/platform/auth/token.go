package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hms/hms/internal/platform/apperr"
)

// DefaultTokenTTL is the token lifetime used when the caller does not supply
// an explicit duration.
const DefaultTokenTTL = 15 * time.Minute

// Claims is the signed claim set carried by every issued token. Subject is
// the user's email (the immutable login key). The role claim records the
// role at issuance time; it is informational only and must never drive an
// authorization decision; the middleware re-resolves the current role from
// storage on every request.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenIssuer issues and verifies HMAC-signed identity tokens. It is
// constructed once at startup from configuration and passed down explicitly.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given subject with the issuer's configured
// lifetime.
func (i *TokenIssuer) Issue(email string, role Role) (string, error) {
	return i.IssueFor(email, role, i.ttl)
}

// IssueFor signs a token with an explicit lifetime.
func (i *TokenIssuer) IssueFor(email string, role Role, ttl time.Duration) (string, error) {
	if len(i.secret) == 0 {
		return "", apperr.Internal(nil, "signing key not configured")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", apperr.Internal(err, "signing token")
	}
	return signed, nil
}

// Verify parses and validates a token, returning the subject and the role
// recorded at issuance. It never consults storage; callers must re-resolve
// the user by subject before authorizing anything.
func (i *TokenIssuer) Verify(tokenStr string) (subject string, role Role, err error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", "", apperr.Unauthenticated("invalid or expired token")
	}
	if claims.Subject == "" {
		return "", "", apperr.Unauthenticated("token has no subject")
	}
	return claims.Subject, Role(claims.Role), nil
}
