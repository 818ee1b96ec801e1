package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DB_STATEMENT_TIMEOUT", "SIGNUP_REQUIRES_APPROVAL", "DEVICE_REQUIRE_API_KEY", "STALE_BIN_AFTER"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()

	if cfg.Server.Port != "7001" {
		t.Fatalf("expected port 7001 got %q", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" || cfg.Database.StatementTimeout != 5*time.Second {
		t.Fatalf("unexpected database defaults %+v", cfg.Database)
	}
	if !cfg.Accounts.SignupRequiresApproval {
		t.Fatal("expected signup approval by default")
	}
	if cfg.Devices.RequireAPIKey {
		t.Fatal("expected device keys optional by default")
	}
	if cfg.Worker.StaleBinAfter != 0 {
		t.Fatalf("expected stale monitor disabled got %s", cfg.Worker.StaleBinAfter)
	}
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "PORT=9000\nDB_DRIVER=sqlite\nALLOWED_ORIGINS= https://a.example , ,https://b.example\nSTALE_BIN_AFTER=notaduration\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	for _, k := range []string{"PORT", "DB_DRIVER", "ALLOWED_ORIGINS", "STALE_BIN_AFTER"} {
		k := k
		t.Cleanup(func() { os.Unsetenv(k) })
	}

	cfg := LoadConfig(envFile, filepath.Join(dir, "missing.env"))

	if cfg.Server.Port != "9000" || cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected env file values got port=%q driver=%q", cfg.Server.Port, cfg.Database.Driver)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Worker.StaleBinAfter != 0 {
		t.Fatalf("expected fallback for invalid duration got %s", cfg.Worker.StaleBinAfter)
	}
}
