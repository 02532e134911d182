// Package config loads learning-beast configuration from defaults, an
// optional YAML file and LEARNING_BEAST_* environment variables, in that
// order of precedence (environment wins).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment variable read.
const EnvPrefix = "LEARNING_BEAST_"

// DefaultConfigPaths are searched in order when no path is given.
var DefaultConfigPaths = []string{
	"learning-beast.yaml",
	"learning-beast.yml",
}

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Session SessionConfig `koanf:"session"`
	Catalog CatalogConfig `koanf:"catalog"`
	Log     LogConfig     `koanf:"log"`
}

type ServerConfig struct {
	Address            string   `koanf:"address"`
	AllowedOrigins     []string `koanf:"allowed_origins"`
	StartRatePerMinute int      `koanf:"start_rate_per_minute"` // 0 disables the limit
}

type SessionConfig struct {
	TTLMinutes    int           `koanf:"ttl_minutes"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	Shards        int           `koanf:"shards"`
}

// TTL returns the session lifetime.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

type CatalogConfig struct {
	DataDir string `koanf:"data_dir"`
	// DB, when set, loads the catalog from this SQLite database instead of DataDir.
	DB string `koanf:"db"`
}

type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:            ":8080",
			AllowedOrigins:     []string{"http://localhost", "http://localhost:5173"},
			StartRatePerMinute: 30,
		},
		Session: SessionConfig{
			TTLMinutes:    90,
			SweepInterval: time.Minute,
			Shards:        32,
		},
		Catalog: CatalogConfig{
			DataDir: "data",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

var envMappings = map[string]string{
	"address":               "server.address",
	"allowed_origins":       "server.allowed_origins",
	"start_rate_per_minute": "server.start_rate_per_minute",
	"session_ttl_minutes":   "session.ttl_minutes",
	"sweep_interval":        "session.sweep_interval",
	"session_shards":        "session.shards",
	"data_dir":              "catalog.data_dir",
	"catalog_db":            "catalog.db",
	"log_level":             "log.level",
	"log_development":       "log.development",
}

// envTransform maps LEARNING_BEAST_SESSION_TTL_MINUTES to session.ttl_minutes.
// Unknown variables map to "" and are skipped.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envMappings[key]
}

// Load builds a Config. path may be empty, in which case DefaultConfigPaths
// are tried and a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// Comma-separated env values arrive as a single string.
	if origins, ok := k.Get("server.allowed_origins").(string); ok {
		if err := k.Set("server.allowed_origins", splitList(origins)); err != nil {
			return nil, fmt.Errorf("parse allowed origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Session.TTLMinutes <= 0 {
		return fmt.Errorf("session.ttl_minutes must be positive, got %d", c.Session.TTLMinutes)
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval must be positive, got %s", c.Session.SweepInterval)
	}
	if c.Session.Shards <= 0 {
		return fmt.Errorf("session.shards must be positive, got %d", c.Session.Shards)
	}
	if c.Server.StartRatePerMinute < 0 {
		return fmt.Errorf("server.start_rate_per_minute must not be negative")
	}
	if c.Catalog.DataDir == "" && c.Catalog.DB == "" {
		return fmt.Errorf("one of catalog.data_dir or catalog.db is required")
	}
	return nil
}
