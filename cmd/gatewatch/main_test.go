package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("GATEWATCH_CONFIG")
	defer os.Setenv("GATEWATCH_CONFIG", originalEnv)

	os.Setenv("GATEWATCH_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies run fails when database path is empty.
func TestRun_MissingDatabasePath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
gate:
  name: test-gate
  location: "Test Gate"

database:
  path: ""
  wal_mode: true
  busy_timeout: 5

security:
  pbkdf2_iterations: 10000
  debounce_seconds: 2
  jwt:
    secret: "test-secret-for-development-only"

logging:
  level: info
  format: text
  output: stdout

api:
  host: "127.0.0.1"
  port: 8080
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("GATEWATCH_CONFIG")
	defer os.Setenv("GATEWATCH_CONFIG", originalEnv)
	os.Setenv("GATEWATCH_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("GATEWATCH_CONFIG")
	defer os.Setenv("GATEWATCH_CONFIG", originalEnv)

	os.Unsetenv("GATEWATCH_CONFIG")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("GATEWATCH_CONFIG")
	defer os.Setenv("GATEWATCH_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("GATEWATCH_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_StartupAndShutdown boots the full stack with MQTT and InfluxDB
// disabled, then shuts down on context timeout.
func TestRun_StartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	dbPath := filepath.Join(tmpDir, "test.db")

	configContent := `
gate:
  name: test-gate
  location: "Test Gate"

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

security:
  pbkdf2_iterations: 10000
  debounce_seconds: 2
  jwt:
    secret: "test-secret-for-development-only"

logging:
  level: error
  format: text
  output: stdout

api:
  host: "127.0.0.1"
  port: 18099
  timeouts:
    read: 30
    write: 60
    idle: 120

influxdb:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("GATEWATCH_CONFIG")
	defer os.Setenv("GATEWATCH_CONFIG", originalEnv)
	os.Setenv("GATEWATCH_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	// The database file exists and has been migrated.
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}
