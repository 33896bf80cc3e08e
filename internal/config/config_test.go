package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":5003" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.AI.BaseURL != "http://127.0.0.1:11434" {
		t.Fatalf("unexpected base URL: %s", cfg.AI.BaseURL)
	}
	if cfg.AI.Model != "llama3.1" {
		t.Fatalf("unexpected model: %s", cfg.AI.Model)
	}
	if cfg.AI.Timeout != 120*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.AI.Timeout)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadPortVariants(t *testing.T) {
	t.Setenv("PORT", "8080")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}

	t.Setenv("PORT", "127.0.0.1:9000")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}

	t.Setenv("PORT", "80 80")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://lorinsinzig.ch, http://localhost:3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	want := []string{"https://lorinsinzig.ch", "http://localhost:3000"}
	if len(cfg.CORS.AllowedOrigins) != len(want) {
		t.Fatalf("unexpected origins: %v", cfg.CORS.AllowedOrigins)
	}
	for i := range want {
		if cfg.CORS.AllowedOrigins[i] != want[i] {
			t.Fatalf("origin %d: got %s want %s", i, cfg.CORS.AllowedOrigins[i], want[i])
		}
	}
}

func TestLoadTimeout(t *testing.T) {
	t.Setenv("OLLAMA_TIMEOUT", "30")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.Timeout != 30*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.AI.Timeout)
	}

	t.Setenv("OLLAMA_TIMEOUT", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero OLLAMA_TIMEOUT")
	}

	t.Setenv("OLLAMA_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric OLLAMA_TIMEOUT")
	}
}
