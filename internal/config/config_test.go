package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testKey = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eventfront.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":8081"
backend_url: "https://booking.internal"
session_ttl: "2h"
csrf_key: "`+testKey+`"
dev: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8081" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.BackendURL != "https://booking.internal" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if !cfg.Dev {
		t.Error("Dev not set")
	}
	if cfg.SessionDSN != "" {
		t.Errorf("SessionDSN = %q, want empty default", cfg.SessionDSN)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
backend_url: "https://from-file"
csrf_key: "`+testKey+`"
`)
	t.Setenv("EVENTFRONT_BACKEND_URL", "https://from-env")
	t.Setenv("EVENTFRONT_SESSION_TTL", "30m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackendURL != "https://from-env" {
		t.Errorf("BackendURL = %q, want env value", cfg.BackendURL)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
}

func TestMissingCSRFKey(t *testing.T) {
	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "csrf_key") {
		t.Fatalf("Load without key = %v, want missing csrf_key error", err)
	}
}

func TestInvalidValuesCollected(t *testing.T) {
	path := writeConfig(t, `
session_ttl: "sideways"
csrf_key: "too-short"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "session_ttl") || !strings.Contains(msg, "csrf_key") {
		t.Errorf("error %q should name both invalid fields", msg)
	}
}

func TestEnvKeyOnly(t *testing.T) {
	t.Setenv("EVENTFRONT_CSRF_KEY", testKey)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":3000" || cfg.SessionTTL != 24*time.Hour {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}
