package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/servicelog_test")
	t.Cleanup(func() { os.Unsetenv("DATABASE_URL") })
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %q", cfg.Port)
	}
	if !cfg.IsDev() {
		t.Error("expected default ENV to be development")
	}
	if cfg.DraftInterval != 30*time.Second {
		t.Errorf("expected default draft interval 30s, got %s", cfg.DraftInterval)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected default max conns 20, got %d", cfg.DBMaxConns)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is unset")
	}
}

func TestValidate_ProductionRequiresSigningKey(t *testing.T) {
	cfg := &Config{Env: "production", DraftInterval: 30 * time.Second, DraftTTL: time.Hour}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without JWT_SIGNING_KEY")
	}

	cfg.JWTSigningKey = "0123456789abcdef0123456789abcdef"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ShortSigningKey(t *testing.T) {
	cfg := &Config{Env: "production", JWTSigningKey: "short", DraftInterval: 30 * time.Second, DraftTTL: time.Hour}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for short signing key")
	}
}

func TestValidate_DraftTiming(t *testing.T) {
	cfg := &Config{Env: "development", DraftInterval: 100 * time.Millisecond, DraftTTL: time.Hour}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sub-second draft interval")
	}

	cfg = &Config{Env: "development", DraftInterval: time.Minute, DraftTTL: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when TTL is shorter than interval")
	}
}
