// Package config loads process settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// demoJWTSecret signs sessions when the server runs without a database and no
// JWT_SECRET was provided.
const demoJWTSecret = "digital-ondu-demo-secret-not-for-production"

// demoAdminPassword is the super admin password in demo mode when ADMIN_PASSWORD is unset.
const demoAdminPassword = "ondu-admin-demo"

type Config struct {
	ServerPort      string
	DatabaseURL     string
	DemoMode        bool
	JWTSecret       string
	AllowedOrigins  string
	RedisAddress    string
	LogLevel        string
	LogFormat       string
	StoreID         uuid.UUID
	TestDatabaseURL string

	// AdminUsername and AdminPassword provision the platform super admin at startup.
	AdminUsername string
	AdminPassword string
	// AppUsername and AppPassword are the terminal client's login.
	AppUsername string
	AppPassword string
}

// Load reads .env (if present) and the environment. Invalid values are returned as
// errors so callers decide whether to exit.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AllowedOrigins:  os.Getenv("ALLOWED_ORIGINS"),
		RedisAddress:    os.Getenv("REDIS_ADDRESS"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "json")),
		TestDatabaseURL: os.Getenv("TEST_DATABASE_URL"),
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		AppUsername:     os.Getenv("APP_USERNAME"),
		AppPassword:     os.Getenv("APP_PASSWORD"),
	}

	demo, err := getBool("DEMO_MODE", cfg.DatabaseURL == "")
	if err != nil {
		return nil, err
	}
	cfg.DemoMode = demo

	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		return nil, fmt.Errorf("SERVER_PORT must be numeric, got %q", cfg.ServerPort)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}

	switch {
	case cfg.JWTSecret == "" && cfg.DemoMode:
		cfg.JWTSecret = demoJWTSecret
	case cfg.JWTSecret == "":
		return nil, fmt.Errorf("JWT_SECRET is required outside demo mode")
	case len(cfg.JWTSecret) < 32 && !cfg.DemoMode:
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if cfg.AdminPassword == "" && cfg.DemoMode {
		cfg.AdminPassword = demoAdminPassword
	}
	if !cfg.DemoMode && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when DEMO_MODE is off")
	}

	if raw := os.Getenv("STORE_ID"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("STORE_ID is not a valid UUID: %w", err)
		}
		cfg.StoreID = id
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}
