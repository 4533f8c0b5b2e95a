package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if cfg.Port != 5000 || cfg.StoreDriver != DriverSQLite || cfg.DailyResetSpec != "@daily" {
		t.Fatalf("Unexpected defaults %+v", cfg)
	}
	if cfg.BodyLimit() != 50<<20 || cfg.ShutdownGrace != 10*time.Second {
		t.Errorf("Expected a 50MB limit and 10s grace, but got %d and %v", cfg.BodyLimit(), cfg.ShutdownGrace)
	}
	if cfg.Addr() != ":5000" {
		t.Errorf("Expected :5000, but got %s", cfg.Addr())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("CORS_ORIGINS", "http://a.example,http://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if cfg.Port != 8081 || cfg.StoreDriver != DriverMongo {
		t.Fatalf("Expected port 8081 on mongo, but got %d on %s", cfg.Port, cfg.StoreDriver)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.example" {
		t.Errorf("Unexpected CORS origins %v", cfg.CORSOrigins)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ADMIN_USERNAME=owner\nADMIN_PASSWORD=secret\n"), 0o600); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("ADMIN_USERNAME")
		os.Unsetenv("ADMIN_PASSWORD")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if cfg.AdminUsername != "owner" || cfg.AdminPassword != "secret" {
		t.Fatalf("Expected credentials from .env, but got %q/%q", cfg.AdminUsername, cfg.AdminPassword)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"PORT":          "not-a-port",
		"STORE_DRIVER":  "postgres",
		"BODY_LIMIT_MB": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if key == "PORT" && !strings.Contains(err.Error(), "parse env:") {
				t.Errorf("Expected a parse env prefix, but got %v", err)
			}
		})
	}
}
