// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first if present; real
// environment variables always win over it.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/anonbox/internal/auth"
)

const (
	DefaultPort   = 5001
	DefaultDBPath = "data/anonbox.db"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port int
	// DatabaseURL selects the Postgres store when set. Otherwise DBPath is
	// opened with SQLite.
	DatabaseURL string
	DBPath      string
	JWTSecret   string
	BcryptCost  int
	CORSOrigins []string
	LogLevel    slog.Level
}

// UsesDevSecret reports whether JWT_SECRET was left unset.
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == auth.DevSecret
}

// UsesPostgres reports whether DatabaseURL is a Postgres DSN.
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") ||
		strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	// A missing .env is normal in production.
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:        DefaultPort,
		DatabaseURL: strings.TrimSpace(getenv("DATABASE_URL")),
		DBPath:      DefaultDBPath,
		JWTSecret:   auth.DevSecret,
		BcryptCost:  auth.DefaultCost,
		CORSOrigins: []string{"*"},
		LogLevel:    slog.LevelInfo,
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if cfg.DatabaseURL != "" && !cfg.UsesPostgres() {
		return nil, fmt.Errorf("config: DATABASE_URL must start with postgres:// or postgresql://")
	}

	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := getenv("JWT_SECRET"); v != "" {
		if len(v) < auth.MinSecretLength {
			return nil, fmt.Errorf("config: JWT_SECRET must be at least %d characters", auth.MinSecretLength)
		}
		cfg.JWTSecret = v
	}

	if v := getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("config: BCRYPT_COST must be between %d and %d, got %q",
				bcrypt.MinCost, bcrypt.MaxCost, v)
		}
		cfg.BcryptCost = cost
	}

	if v := getenv("CORS_ORIGIN"); v != "" {
		var origins []string
		for _, p := range strings.Split(v, ",") {
			if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) == 0 {
			return nil, fmt.Errorf("config: CORS_ORIGIN has no origins")
		}
		cfg.CORSOrigins = origins
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("config: invalid LOG_LEVEL %q", v)
		}
	}

	return cfg, nil
}
