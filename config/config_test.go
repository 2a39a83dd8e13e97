package config

import (
	"testing"
	"time"
)

func TestEmptyValuesFallBack(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "TOKEN_TTL", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfig()

	if cfg.ServerPort != 8080 {
		t.Errorf("expected port fallback 8080, got %d", cfg.ServerPort)
	}
	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("expected 7 day token TTL, got %s", cfg.Auth.TokenTTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard origins, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_SSL", "true")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://myflix.app, http://localhost:1234 ,")
	t.Setenv("JWT_SECRET", "  s3cret  ")
	t.Setenv("MQ_BACKEND", "rabbitmq")

	cfg := LoadConfig()

	if cfg.ServerPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.ServerPort)
	}
	if cfg.DBDriver != DriverPostgres {
		t.Errorf("expected postgres driver, got %q", cfg.DBDriver)
	}
	if !cfg.Database.UseSSL {
		t.Errorf("expected DB_SSL to be parsed")
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("expected 2h TTL, got %s", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("expected trimmed secret, got %q", cfg.Auth.JWTSecret)
	}
	want := []string{"https://myflix.app", "http://localhost:1234"}
	if len(cfg.CORS.AllowedOrigins) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.CORS.AllowedOrigins)
	}
	for i := range want {
		if cfg.CORS.AllowedOrigins[i] != want[i] {
			t.Errorf("origin %d: expected %q, got %q", i, want[i], cfg.CORS.AllowedOrigins[i])
		}
	}
	if cfg.MQBackend != "rabbitmq" {
		t.Errorf("expected rabbitmq backend, got %q", cfg.MQBackend)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("DB_SSL", "maybe")
	t.Setenv("TOKEN_TTL", "forever")

	cfg := LoadConfig()

	if cfg.ServerPort != 8080 {
		t.Errorf("expected default port, got %d", cfg.ServerPort)
	}
	if cfg.Database.UseSSL {
		t.Errorf("expected default DB_SSL false")
	}
	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("expected default TTL, got %s", cfg.Auth.TokenTTL)
	}
}
