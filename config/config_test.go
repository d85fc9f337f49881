package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://hse@localhost/hse")
	t.Setenv("HSE_JWT_SECRET", "secret")
	t.Setenv("HSE_ADDR", "")
	t.Setenv("HSE_DB_MAX_CONNS", "")
	t.Setenv("HSE_ADMIN_EMAIL", "")
	t.Setenv("HSE_ADMIN_PASSWORD", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DBMaxConns != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SeedAdmin() {
		t.Fatal("expected no admin seeding without credentials")
	}
}

func TestLoad_RequiresDatabaseAndSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("HSE_JWT_SECRET", "secret")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://hse@localhost/hse")
	t.Setenv("HSE_JWT_SECRET", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error without HSE_JWT_SECRET")
	}
}

func TestLoad_InvalidMaxConns(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://hse@localhost/hse")
	t.Setenv("HSE_JWT_SECRET", "secret")
	t.Setenv("HSE_DB_MAX_CONNS", "many")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-numeric HSE_DB_MAX_CONNS")
	}

	for _, v := range []string{"0", "-3", "2147483648", "4294967306"} {
		t.Setenv("HSE_DB_MAX_CONNS", v)
		if _, err := Load(""); err == nil {
			t.Fatalf("expected error for HSE_DB_MAX_CONNS=%s", v)
		}
	}

	t.Setenv("HSE_DB_MAX_CONNS", "2147483647")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load max int32: %v", err)
	}
	if cfg.DBMaxConns != 2147483647 {
		t.Fatalf("expected DBMaxConns 2147483647, got %d", cfg.DBMaxConns)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://from-env@localhost/hse")
	t.Setenv("HSE_JWT_SECRET", "")
	t.Setenv("HSE_ADMIN_EMAIL", "")
	os.Unsetenv("HSE_JWT_SECRET")
	os.Unsetenv("HSE_ADMIN_EMAIL")

	path := filepath.Join(t.TempDir(), ".env")
	content := "DATABASE_URL=postgres://from-file@localhost/hse\nHSE_JWT_SECRET=file-secret\nHSE_ADMIN_EMAIL=admin@example.com\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("HSE_JWT_SECRET")
		os.Unsetenv("HSE_ADMIN_EMAIL")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://from-env@localhost/hse" {
		t.Fatalf("expected environment to win over file, got %q", cfg.DatabaseURL)
	}
	if cfg.JWTSecret != "file-secret" || cfg.AdminEmail != "admin@example.com" {
		t.Fatalf("expected values from file, got %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}
