// Package config loads punchclock settings from defaults, an optional TOML
// file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	DBPath          string   `toml:"db_path"`
	Addr            string   `toml:"addr"`
	JWTSecret       string   `toml:"jwt_secret"`
	TokenTTLHours   int      `toml:"token_ttl_hours"`
	DefaultTimezone string   `toml:"default_timezone"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	LogLevel        string   `toml:"log_level"`
}

func DefaultConfig() *Config {
	dir, _ := Dir()
	return &Config{
		DBPath:          filepath.Join(dir, "punchclock.db"),
		Addr:            ":8080",
		TokenTTLHours:   24,
		DefaultTimezone: "UTC",
		LogLevel:        "info",
	}
}

// Dir returns ~/.punchclock
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".punchclock"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load builds the configuration. An empty path means the default location; a
// missing file is not an error. A .env file in the working directory is
// loaded into the environment before overrides are applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	_ = godotenv.Load()
	applyEnv(cfg)

	cfg.DBPath = expandPath(cfg.DBPath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DBPath = getEnv("PUNCHCLOCK_DB", cfg.DBPath)
	cfg.Addr = getEnv("PUNCHCLOCK_ADDR", cfg.Addr)
	cfg.JWTSecret = getEnv("PUNCHCLOCK_JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTLHours = getEnvInt("PUNCHCLOCK_TOKEN_TTL_HOURS", cfg.TokenTTLHours)
	cfg.DefaultTimezone = getEnv("PUNCHCLOCK_DEFAULT_TIMEZONE", cfg.DefaultTimezone)
	cfg.LogLevel = getEnv("PUNCHCLOCK_LOG_LEVEL", cfg.LogLevel)
	if raw := os.Getenv("PUNCHCLOCK_ALLOWED_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("default_timezone %q: %w", c.DefaultTimezone, err)
	}
	if c.TokenTTLHours <= 0 {
		return errors.New("token_ttl_hours must be positive")
	}
	return nil
}

// RequireSecret reports an error when no JWT secret is configured. Only the
// HTTP server and token minting need one.
func (c *Config) RequireSecret() error {
	if c.JWTSecret == "" {
		return errors.New("missing jwt secret: set PUNCHCLOCK_JWT_SECRET or jwt_secret in config.toml")
	}
	return nil
}

// Save writes cfg to path as TOML, creating the directory if needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func expandPath(path string) string {
	if path == ":memory:" || !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
