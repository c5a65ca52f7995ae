package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a YAML config to a temp file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const validYAML = `
gate:
  name: main
  location: Front Gate
database:
  path: /tmp/gatewatch-test.db
security:
  jwt:
    secret: 0123456789abcdef0123456789abcdef
`

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gate.Location != "Front Gate" {
		t.Errorf("Gate.Location = %q, want %q", cfg.Gate.Location, "Front Gate")
	}
	if cfg.Database.Path != "/tmp/gatewatch-test.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}

	// Defaults survive a partial file
	if cfg.Security.PBKDF2Iterations != 150_000 {
		t.Errorf("PBKDF2Iterations = %d, want 150000", cfg.Security.PBKDF2Iterations)
	}
	if cfg.DebounceWindow() != 2*time.Second {
		t.Errorf("DebounceWindow() = %v, want 2s", cfg.DebounceWindow())
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want 8080", cfg.API.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GATEWATCH_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("GATEWATCH_JWT_SECRET", strings.Repeat("s", 32))

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.Security.JWT.Secret != strings.Repeat("s", 32) {
		t.Error("JWT secret should come from environment")
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing jwt secret", func(c *Config) { c.Security.JWT.Secret = "" }, "jwt.secret is required"},
		{"short jwt secret", func(c *Config) { c.Security.JWT.Secret = "short" }, "at least 32 characters"},
		{"weak kdf", func(c *Config) { c.Security.PBKDF2Iterations = 100 }, "pbkdf2_iterations"},
		{"bad port", func(c *Config) { c.API.Port = 0 }, "api.port"},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"missing gate location", func(c *Config) { c.Gate.Location = "" }, "gate.location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.JWT.Secret = strings.Repeat("x", 32)
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestMQTTEnabled(t *testing.T) {
	cfg := defaultConfig()
	if cfg.MQTTEnabled() {
		t.Error("MQTTEnabled() should be false with no broker host")
	}
	cfg.MQTT.Broker.Host = "localhost"
	if !cfg.MQTTEnabled() {
		t.Error("MQTTEnabled() should be true with a broker host")
	}
}
