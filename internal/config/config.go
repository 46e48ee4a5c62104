// Package config loads front-end configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures everything the front-end needs at startup.
type Config struct {
	// ListenAddr is the address the front-end serves on.
	ListenAddr string
	// BackendURL is the booking API origin every request is proxied to.
	BackendURL string
	// SessionTTL bounds how long a visitor stays logged in here.
	SessionTTL time.Duration
	// SessionDSN, when set, switches session storage from memory to
	// PostgreSQL so several instances can share visitors.
	SessionDSN string
	// CSRFKey signs the double-submit tokens protecting our own forms.
	// Must be 32 bytes.
	CSRFKey string
	// Dev disables the Secure flag on cookies for plain-HTTP development.
	Dev bool
}

// fileConfig is the YAML shape; durations are strings so the file stays
// human-editable.
type fileConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	BackendURL string `yaml:"backend_url"`
	SessionTTL string `yaml:"session_ttl"`
	SessionDSN string `yaml:"session_dsn"`
	CSRFKey    string `yaml:"csrf_key"`
	Dev        bool   `yaml:"dev"`
}

// Load builds the configuration: defaults, then the YAML file at path (when
// path is non-empty), then EVENTFRONT_* environment overrides. Missing and
// invalid values are reported together.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddr: ":3000",
		BackendURL: "http://127.0.0.1:8000",
		SessionTTL: 24 * time.Hour,
	}

	var invalid []string

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		applyFile(&cfg, fc, &invalid)
	}

	applyEnv(&cfg, &invalid)

	var missing []string
	if cfg.CSRFKey == "" {
		missing = append(missing, "csrf_key (EVENTFRONT_CSRF_KEY)")
	} else if len(cfg.CSRFKey) != 32 {
		invalid = append(invalid, "csrf_key must be exactly 32 bytes")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func applyFile(cfg *Config, fc fileConfig, invalid *[]string) {
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.BackendURL != "" {
		cfg.BackendURL = fc.BackendURL
	}
	if fc.SessionTTL != "" {
		ttl, err := time.ParseDuration(fc.SessionTTL)
		if err != nil || ttl <= 0 {
			*invalid = append(*invalid, "session_ttl")
		} else {
			cfg.SessionTTL = ttl
		}
	}
	if fc.SessionDSN != "" {
		cfg.SessionDSN = fc.SessionDSN
	}
	if fc.CSRFKey != "" {
		cfg.CSRFKey = fc.CSRFKey
	}
	if fc.Dev {
		cfg.Dev = true
	}
}

func applyEnv(cfg *Config, invalid *[]string) {
	if v := strings.TrimSpace(os.Getenv("EVENTFRONT_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("EVENTFRONT_BACKEND_URL")); v != "" {
		cfg.BackendURL = v
	}
	if v := strings.TrimSpace(os.Getenv("EVENTFRONT_SESSION_TTL")); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			*invalid = append(*invalid, "EVENTFRONT_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}
	if v := strings.TrimSpace(os.Getenv("EVENTFRONT_SESSION_DSN")); v != "" {
		cfg.SessionDSN = v
	}
	if v := os.Getenv("EVENTFRONT_CSRF_KEY"); v != "" {
		cfg.CSRFKey = v
	}
	if v := strings.TrimSpace(os.Getenv("EVENTFRONT_DEV")); v != "" {
		cfg.Dev = v == "1" || strings.EqualFold(v, "true")
	}
}
