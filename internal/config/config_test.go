package config

import (
	"testing"
	"time"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted an empty JWT_SECRET")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	// The write timeout must outlive a full synchronous video render.
	if cfg.HTTPWriteTimeout != 360*time.Second {
		t.Errorf("HTTPWriteTimeout = %v", cfg.HTTPWriteTimeout)
	}
	if cfg.DefaultLocale != "en" {
		t.Errorf("DefaultLocale = %q", cfg.DefaultLocale)
	}
	if cfg.RateLimitPerMin != 30 {
		t.Errorf("RateLimitPerMin = %d", cfg.RateLimitPerMin)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9999")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, https://b.test,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.MaxUploadBytes != 2048 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MAX_UPLOAD_BYTES", "lots")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.RateLimitPerMin != 30 {
		t.Errorf("RateLimitPerMin = %d", cfg.RateLimitPerMin)
	}
}
