package config

import (
	"testing"
	"time"
)

func TestLoadRejectsShortSigningKey(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "too-short")
	if _, err := Load(); err == nil {
		t.Error("expected error for signing key under 32 characters")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.AccessTokenTTL != 15*time.Minute {
		t.Errorf("access TTL = %v, want 15m", cfg.JWT.AccessTokenTTL)
	}
	if cfg.JWT.RefreshTokenTTL != 30*24*time.Hour {
		t.Errorf("refresh TTL = %v, want 720h", cfg.JWT.RefreshTokenTTL)
	}
	if cfg.JWT.Algorithm != "HS256" {
		t.Errorf("algorithm = %q, want HS256", cfg.JWT.Algorithm)
	}
	if !cfg.Auth.EnforceTenantIsolation {
		t.Error("tenant isolation disabled by default")
	}
	if cfg.TOTP.Issuer == "" {
		t.Error("TOTP issuer empty by default")
	}
}

func TestDurationOverride(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.AccessTokenTTL != 5*time.Minute {
		t.Errorf("access TTL = %v, want 5m", cfg.JWT.AccessTokenTTL)
	}
}
