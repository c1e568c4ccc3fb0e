package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Port           string      `yaml:"port"`
	DatabaseURL    string      `yaml:"database_url"`
	SessionSecret  string      `yaml:"session_secret"`
	SessionName    string      `yaml:"session_name"`
	SecureCookies  bool        `yaml:"secure_cookies"`
	LogLevel       string      `yaml:"log_level"`
	LogJSON        bool        `yaml:"log_json"`
	GinMode        string      `yaml:"gin_mode"`
	MetricsEnabled bool        `yaml:"metrics_enabled"`
	SeedBoards     []SeedBoard `yaml:"seed_boards"`
}

// SeedBoard is a board created on startup when no board exists yet.
type SeedBoard struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

const (
	defaultDSN    = "host=localhost user=postgres password=postgres dbname=boards port=5432 sslmode=disable"
	defaultSecret = "secret_key_change_me"
)

func defaults() *Config {
	return &Config{
		Port:           "8080",
		DatabaseURL:    defaultDSN,
		SessionSecret:  defaultSecret,
		SessionName:    "forum_session",
		LogLevel:       "info",
		GinMode:        "release",
		MetricsEnabled: true,
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if any) and finally the environment. A .env file in the
// working directory is loaded into the environment first.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"PORT":           &cfg.Port,
		"DATABASE_URL":   &cfg.DatabaseURL,
		"SESSION_SECRET": &cfg.SessionSecret,
		"SESSION_NAME":   &cfg.SessionName,
		"LOG_LEVEL":      &cfg.LogLevel,
		"GIN_MODE":       &cfg.GinMode,
	}
	for key, dst := range str {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	flags := map[string]*bool{
		"SECURE_COOKIES":  &cfg.SecureCookies,
		"LOG_JSON":        &cfg.LogJSON,
		"METRICS_ENABLED": &cfg.MetricsEnabled,
	}
	for key, dst := range flags {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
	}
	return nil
}

// UsesDefaultSecret reports whether sessions are signed with the built-in development key.
func (c *Config) UsesDefaultSecret() bool {
	return c.SessionSecret == defaultSecret
}
