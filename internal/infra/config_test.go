package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "")
	t.Setenv("FAL_QUEUE_BASE_URL", "")
	t.Setenv("MAX_CONCURRENT_GENERATIONS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q", cfg.Port)
	}
	if cfg.FalQueueBaseURL != "https://queue.fal.run" {
		t.Fatalf("FalQueueBaseURL mismatch: got %q", cfg.FalQueueBaseURL)
	}
	if cfg.MaxConcurrent != 3 {
		t.Fatalf("MaxConcurrent mismatch: got %d", cfg.MaxConcurrent)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("PollInterval mismatch: got %v", cfg.PollInterval)
	}
	if cfg.DBMaxConns != 10 || cfg.DBMinConns != 1 {
		t.Fatalf("pool sizing mismatch: got %d/%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigRejectsNonPositiveConcurrency(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("MAX_CONCURRENT_GENERATIONS", "-2")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for non-positive concurrency")
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("MAX_CONCURRENT_GENERATIONS", "8")
	t.Setenv("CANVAS_CONCURRENT_GENERATIONS", "12")
	t.Setenv("FAL_QUEUE_BASE_URL", "https://queue.example.com")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://studio.example.com, https://alt.example.com")
	t.Setenv("DB_MAX_CONNS", "4")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MaxConcurrent != 8 {
		t.Fatalf("MaxConcurrent mismatch: got %d", cfg.MaxConcurrent)
	}
	if cfg.CanvasConcurrent != 12 {
		t.Fatalf("CanvasConcurrent mismatch: got %d", cfg.CanvasConcurrent)
	}
	if cfg.FalQueueBaseURL != "https://queue.example.com" {
		t.Fatalf("FalQueueBaseURL mismatch: got %q", cfg.FalQueueBaseURL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://studio.example.com" {
		t.Fatalf("AllowedOrigins mismatch: got %v", cfg.AllowedOrigins)
	}
	if cfg.DBMaxConns != 4 {
		t.Fatalf("DBMaxConns mismatch: got %d", cfg.DBMaxConns)
	}
}
