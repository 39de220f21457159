// Package config loads server settings from the environment and client
// settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// devSecret signs tokens when no secret is configured. Fine for a laptop,
// never for a shared server.
const devSecret = "wishlists-dev-secret"

// Server holds all configuration for the wishlists server.
type Server struct {
	Addr        string
	Store       string
	DBPath      string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	LogLevel    string
	LogFormat   string
}

// InsecureSecret reports whether tokens are signed with the built-in secret.
func (c *Server) InsecureSecret() bool {
	return c.JWTSecret == devSecret
}

// LoadDotenvIfPresent loads .env from the working directory when it exists.
// Variables already set in the environment win.
func LoadDotenvIfPresent() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// LoadServer reads the server configuration from environment variables.
func LoadServer() (*Server, error) {
	cfg := &Server{
		Addr:        getEnvOrDefault("WISHLISTS_ADDR", ":8080"),
		Store:       getEnvOrDefault("WISHLISTS_STORE", StoreSQLite),
		DBPath:      getEnvOrDefault("WISHLISTS_DB_PATH", "./data/wishlists.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   getEnvOrDefault("WISHLISTS_JWT_SECRET", devSecret),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "text"),
	}

	ttl, err := time.ParseDuration(getEnvOrDefault("WISHLISTS_TOKEN_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("WISHLISTS_TOKEN_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("WISHLISTS_TOKEN_TTL must be positive, got %s", ttl)
	}
	cfg.TokenTTL = ttl

	switch cfg.Store {
	case StoreSQLite, StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("WISHLISTS_STORE: unknown store %q", cfg.Store)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT: unknown format %q", cfg.LogFormat)
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
