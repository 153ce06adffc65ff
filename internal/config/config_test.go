package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co/")
	t.Setenv("SUPABASE_ANON_KEY", "\"anon\"")
	for _, key := range []string{"DATABASE_URL", "SUPABASE_SERVICE_ROLE_KEY", "AUTH_PROVIDER", "CIRCLE_API_KEY", "CIRCLE_BLOCKCHAIN", "MAX_UPLOAD_BYTES"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Supabase.URL != "https://project.supabase.co" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.Supabase.URL)
	}
	if cfg.Supabase.AnonKey != "anon" {
		t.Fatalf("expected quotes stripped from key, got %s", cfg.Supabase.AnonKey)
	}
	if cfg.Circle.Blockchain != defaultCircleBlockchain {
		t.Fatalf("expected default blockchain, got %s", cfg.Circle.Blockchain)
	}
	if cfg.MaxUploadBytes != 10*1024*1024 {
		t.Fatalf("expected 10MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if !cfg.HasAuthBackend() {
		t.Fatal("expected auth backend to be configured")
	}
	if cfg.HasPrivilegedStore() {
		t.Fatal("expected no privileged store without service role key or database url")
	}
	if cfg.HasCustody() {
		t.Fatal("expected custody to be unconfigured")
	}
}

func TestLoadDurations(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("IDEMPOTENCY_TTL", "90m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ShutdownPeriod != 3*time.Second {
		t.Fatalf("expected 3s shutdown, got %s", cfg.ShutdownPeriod)
	}
	if cfg.IdempotencyTTL != 90*time.Minute {
		t.Fatalf("expected 90m idempotency ttl, got %s", cfg.IdempotencyTTL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("CIRCLE_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected invalid duration error")
	}
}

func TestLoadMemoryProviderOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("AUTH_PROVIDER", "memory")
	if _, err := Load(); err == nil {
		t.Fatal("expected memory auth provider to be rejected in production")
	}
}

func TestLoadRequiresRedisOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected missing REDIS_URL error")
	}
}
