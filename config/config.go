package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr      string
	DatabaseURL   string
	JWTSecret     string
	GelfAddr      string
	DBMaxConns    int32
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads the configuration from the environment. Variables found in
// envFile are applied first without overriding ones already set; a missing
// file is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	maxConns, err := getEnvInt32("HSE_DB_MAX_CONNS", 10)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPAddr:      getEnv("HSE_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("HSE_JWT_SECRET"),
		GelfAddr:      os.Getenv("HSE_GELF_ADDR"),
		DBMaxConns:    maxConns,
		AdminEmail:    os.Getenv("HSE_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("HSE_ADMIN_PASSWORD"),
		AdminName:     getEnv("HSE_ADMIN_NAME", "Administrador HSE"),
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: HSE_JWT_SECRET is required")
	}
	return cfg, nil
}

// SeedAdmin reports whether a bootstrap administrator is configured.
func (c Config) SeedAdmin() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) (int32, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive 32-bit integer, got %q", key, v)
	}
	return int32(n), nil
}
