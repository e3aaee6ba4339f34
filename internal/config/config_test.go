package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goodtune/burner/internal/calendar"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "burner.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "storage:\n  path: "+filepath.Join(dir, "data", "burner.bolt")+"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.APIPort != 8000 {
		t.Errorf("APIPort = %d, want 8000", cfg.Server.APIPort)
	}
	if cfg.Storage.Type != "bolt" {
		t.Errorf("Storage.Type = %q, want bolt", cfg.Storage.Type)
	}
	if cfg.Storage.Redis.KeyPrefix != "burner" {
		t.Errorf("Redis.KeyPrefix = %q, want burner", cfg.Storage.Redis.KeyPrefix)
	}
	if cfg.Tracking.DefaultTimezone != "UTC" {
		t.Errorf("DefaultTimezone = %q, want UTC", cfg.Tracking.DefaultTimezone)
	}
	if cfg.Tracking.TopHosts != 5 {
		t.Errorf("TopHosts = %d, want 5", cfg.Tracking.TopHosts)
	}
	if _, err := os.Stat(filepath.Join(dir, "data")); err != nil {
		t.Errorf("storage directory not created: %v", err)
	}
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  api_port: 8123
storage:
  type: redis
  redis:
    host: cache.internal
    key_prefix: timers
tracking:
  default_timezone: Australia/Sydney
  retention_days: 400
  collapse_subdomains: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.APIPort != 8123 {
		t.Errorf("APIPort = %d, want 8123", cfg.Server.APIPort)
	}
	if cfg.Storage.Type != "redis" || cfg.Storage.Redis.Host != "cache.internal" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Storage.Redis.KeyPrefix != "timers" {
		t.Errorf("KeyPrefix = %q, want timers", cfg.Storage.Redis.KeyPrefix)
	}
	if cfg.Tracking.DefaultTimezone != "Australia/Sydney" {
		t.Errorf("DefaultTimezone = %q", cfg.Tracking.DefaultTimezone)
	}
	if cfg.Tracking.RetentionDays != 400 || !cfg.Tracking.CollapseSubdomains {
		t.Errorf("Tracking = %+v", cfg.Tracking)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "storage:\n  path: "+filepath.Join(t.TempDir(), "burner.bolt")+"\n")
	t.Setenv("BURNER_SERVER_API_PORT", "9001")
	t.Setenv("BURNER_TRACKING_DEFAULT_TIMEZONE", "Asia/Tokyo")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.APIPort != 9001 {
		t.Errorf("APIPort = %d, want 9001", cfg.Server.APIPort)
	}
	if cfg.Tracking.DefaultTimezone != "Asia/Tokyo" {
		t.Errorf("DefaultTimezone = %q, want Asia/Tokyo", cfg.Tracking.DefaultTimezone)
	}
}

func TestLoadInvalid(t *testing.T) {
	storagePath := filepath.Join(t.TempDir(), "burner.bolt")
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad port", "server:\n  api_port: 70000\n", "invalid API port"},
		{"bad storage type", "storage:\n  type: mongo\n", "unknown storage type"},
		{"bad timezone", "tracking:\n  default_timezone: Mars/Olympus\n", "invalid default timezone"},
		{"local timezone", "tracking:\n  default_timezone: Local\n", "invalid default timezone"},
		{"short retention", "tracking:\n  retention_days: 30\n", "retention_days"},
		{"bad retention time", "tracking:\n  retention_time: noon\n", "retention_time"},
		{"bad dedup window", "tracking:\n  dedup_window: forever\n", "dedup_window"},
		{"bad log level", "logging:\n  level: loud\n", "invalid log level"},
		{"zero top hosts", "tracking:\n  top_hosts: 0\n", "top_hosts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "storage:\n  path: "+storagePath+"\n"+tt.body)
			if strings.HasPrefix(tt.body, "storage:") {
				path = writeConfig(t, tt.body)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestDefaultsAndKnownKeys(t *testing.T) {
	cfg := Defaults()
	if cfg.Storage.Redis.Port != 6379 {
		t.Errorf("Redis.Port = %d, want 6379", cfg.Storage.Redis.Port)
	}
	if cfg.Tracking.RetentionTime != "03:00" {
		t.Errorf("RetentionTime = %q, want 03:00", cfg.Tracking.RetentionTime)
	}

	keys := KnownKeys()
	for _, key := range []string{"server.api_port", "storage.redis.key_prefix", "tracking.dedup_window"} {
		if !keys[key] {
			t.Errorf("KnownKeys missing %q", key)
		}
	}
	if keys["tracking"] {
		t.Error("KnownKeys should only contain leaf keys")
	}
}

func TestLoadTimezoneMatchesRequestValidation(t *testing.T) {
	storagePath := filepath.Join(t.TempDir(), "burner.bolt")

	for _, zone := range []string{"Local", "Mars/Olympus", "   "} {
		path := writeConfig(t, "storage:\n  path: "+storagePath+"\ntracking:\n  default_timezone: \""+zone+"\"\n")
		_, err := Load(path)
		if !errors.Is(err, calendar.ErrInvalidTimezone) {
			t.Errorf("default_timezone %q: expected ErrInvalidTimezone, got %v", zone, err)
		}
	}
}
