package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/gatewatch/gatewatch-core/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	cfg := config.InfluxDBConfig{Enabled: false}

	_, err := Connect(cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("error = %v, want ErrDisabled", err)
	}
}

func TestWrites_NoOpWhenDisconnected(t *testing.T) {
	// A zero-value client is never connected; writes must be silent no-ops
	// rather than panics, since telemetry is optional.
	c := &Client{}

	c.WriteDecision("main-gate", "IN", "", true)
	c.WriteOccupancy("main-gate", 3)
	c.WritePoint("custom", map[string]string{"k": "v"}, map[string]interface{}{"n": 1})
	c.Flush()

	if c.IsConnected() {
		t.Error("zero-value client should report disconnected")
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	c := &Client{}

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("error = %v, want ErrNotConnected", err)
	}
}

func TestClose_NilClient(t *testing.T) {
	c := &Client{}

	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero-value client error = %v", err)
	}
}
