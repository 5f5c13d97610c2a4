package config

import (
	"testing"
	"time"
)

func TestTokenTTL_Default(t *testing.T) {
	cfg := &Config{}
	if got := cfg.TokenTTL(); got != 15*time.Minute {
		t.Errorf("expected default TTL 15m, got %s", got)
	}
}

func TestTokenTTL_Override(t *testing.T) {
	cfg := &Config{TokenTTLMinutes: 60}
	if got := cfg.TokenTTL(); got != time.Hour {
		t.Errorf("expected TTL 1h, got %s", got)
	}
}

func TestIsDev(t *testing.T) {
	if !(&Config{Env: "development"}).IsDev() {
		t.Error("expected development env to be dev")
	}
	if (&Config{Env: "production"}).IsDev() {
		t.Error("expected production env not to be dev")
	}
}

func TestValidate_RequiresSecretOutsideDev(t *testing.T) {
	cfg := &Config{Env: "production", DBMaxConns: 10, DBMinConns: 2}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing JWT_SECRET in production")
	}

	cfg.JWTSecret = "dev-insecure-secret"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for insecure dev key in production")
	}

	cfg.JWTSecret = "a-real-secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_AllowsDevWithoutSecret(t *testing.T) {
	cfg := &Config{Env: "development", DBMaxConns: 10, DBMinConns: 2}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error in development: %v", err)
	}
}

func TestValidate_PoolBounds(t *testing.T) {
	cfg := &Config{Env: "development", DBMaxConns: 2, DBMinConns: 10}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when min conns exceed max conns")
	}
}
