package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"curiospace/internal/completion"
)

func TestLoadConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join("testdata", "valid_config.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Model.Name != "gemini-2.0-flash-lite" {
			t.Fatalf("expected model name, got %q", cfg.Model.Name)
		}
		if *cfg.Model.Temperature != 0.4 {
			t.Fatalf("expected temperature 0.4, got %v", *cfg.Model.Temperature)
		}
		if cfg.Model.Timeout != 20*time.Second {
			t.Fatalf("expected 20s timeout, got %v", cfg.Model.Timeout)
		}
		if cfg.HTTP.Addr != ":9090" {
			t.Fatalf("expected addr, got %q", cfg.HTTP.Addr)
		}
		if cfg.RateLimit.RetryAfter != 45*time.Second {
			t.Fatalf("expected retry after 45s, got %v", cfg.RateLimit.RetryAfter)
		}
		if cfg.Breaker.MinRequests != completion.DefaultBreakerConfig().MinRequests {
			t.Fatalf("expected breaker defaults, got %+v", cfg.Breaker)
		}
		if cfg.Model.APIKeyEnv != DefaultAPIKeyEnv {
			t.Fatalf("expected default api key env, got %q", cfg.Model.APIKeyEnv)
		}
	})

	t.Run("zero temperature is kept", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nmodel:\n  temperature: 0\n")
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if *cfg.Model.Temperature != 0 {
			t.Fatalf("expected temperature 0, got %v", *cfg.Model.Temperature)
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		path := writeTempConfig(t, "version: 2\n")
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("temperature out of range", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nmodel:\n  temperature: 3.5\n")
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("failure threshold out of range", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nbreaker:\n  failure_threshold: 1.5\n")
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unknown logging level", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nlogging:\n  level: loud\n")
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nmodel:\n  timeout: soon\n")
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeTempConfig(t, "version: [\n")
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("template loads", func(t *testing.T) {
		path := writeTempConfig(t, Template)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("expected template to load, got %v", err)
		}
		if cfg.Model.Name != completion.DefaultModel {
			t.Fatalf("expected default model, got %q", cfg.Model.Name)
		}
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if *cfg.Model.Temperature != 0.8 || cfg.Model.MaxOutputTokens != 500 {
		t.Fatalf("unexpected model defaults: %+v", cfg.Model)
	}
	g := cfg.Gemini("key")
	if g.RetryAfter != completion.DefaultRetryAfter || g.Model != completion.DefaultModel {
		t.Fatalf("unexpected gemini config: %+v", g)
	}
}

func TestAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Model.APIKeyEnv = "CURIOSPACE_TEST_KEY"

	t.Setenv("CURIOSPACE_TEST_KEY", "")
	if _, err := cfg.APIKey(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected missing key error, got %v", err)
	}

	t.Setenv("CURIOSPACE_TEST_KEY", " secret ")
	key, err := cfg.APIKey()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if key != "secret" {
		t.Fatalf("expected trimmed key, got %q", key)
	}
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
