package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diagnosis/pakbooking/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PAKBOOKING_API_URL", "PAKBOOKING_API_TIMEOUT", "PAKBOOKING_TOKEN_BACKEND", "NATS_URL", "LOG_LEVEL", "PAKBOOKING_LANGUAGE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg := config.Load()
	if cfg.API.BaseURL != "http://127.0.0.1:8000/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("Timeout = %s", cfg.API.Timeout)
	}
	if cfg.Storage.TokenBackend != config.TokenBackendFile {
		t.Errorf("TokenBackend = %q", cfg.Storage.TokenBackend)
	}
	if cfg.NATS.URL != "" {
		t.Errorf("NATS enabled by default: %q", cfg.NATS.URL)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Locale.Language != "en" || cfg.Locale.Theme != "dark" {
		t.Errorf("locale = %+v", cfg.Locale)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PAKBOOKING_API_URL", "https://api.example.pk/api")
	t.Setenv("PAKBOOKING_API_TIMEOUT", "3s")
	t.Setenv("PAKBOOKING_TOKEN_BACKEND", "redis")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("PAKBOOKING_API_INSECURE", "true")
	t.Setenv("REDIS_KEY_PREFIX", "pb")

	cfg := config.Load()
	if cfg.API.BaseURL != "https://api.example.pk/api" || cfg.API.Timeout != 3*time.Second || !cfg.API.Insecure {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.Storage.TokenBackend != config.TokenBackendRedis || cfg.Redis.DB != 4 || cfg.Redis.KeyPrefix != "pb" {
		t.Errorf("storage = %+v redis = %+v", cfg.Storage, cfg.Redis)
	}

	// Malformed values fall back to defaults.
	t.Setenv("REDIS_DB", "four")
	t.Setenv("PAKBOOKING_API_TIMEOUT", "soon")
	cfg = config.Load()
	if cfg.Redis.DB != 0 || cfg.API.Timeout != 10*time.Second {
		t.Errorf("malformed values not ignored: db=%d timeout=%s", cfg.Redis.DB, cfg.API.Timeout)
	}
}

func TestLoadFileOverlaysEnvironment(t *testing.T) {
	t.Setenv("PAKBOOKING_API_URL", "http://from-env/api")
	t.Setenv("PAKBOOKING_LANGUAGE", "ur")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
api:
  base_url: https://from-file/api
  timeout: 2s
locale:
  theme: light
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://from-file/api" || cfg.API.Timeout != 2*time.Second {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.Locale.Theme != "light" || cfg.Locale.Language != "ur" {
		t.Errorf("locale = %+v", cfg.Locale)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := config.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
