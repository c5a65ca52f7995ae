package mqtt

import (
	"strings"
	"testing"

	"github.com/gatewatch/gatewatch-core/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	cfg := config.MQTTConfig{}
	cfg.Broker.Host = "localhost"
	cfg.Broker.Port = 1883
	cfg.Broker.ClientID = "gatewatch-test"
	cfg.QoS = 1
	cfg.Reconnect.InitialDelay = 1
	cfg.Reconnect.MaxDelay = 60
	return cfg
}

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"gate scan", topics.GateScan("main-gate"), "gatewatch/gate/main-gate/scan"},
		{"gate decision", topics.GateDecision("main-gate"), "gatewatch/gate/main-gate/decision"},
		{"system status", topics.SystemStatus(), "gatewatch/system/status"},
		{"all scans", topics.AllGateScans(), "gatewatch/gate/+/scan"},
		{"all decisions", topics.AllGateDecisions(), "gatewatch/gate/+/decision"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("got %d brokers, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://localhost:1883" {
		t.Errorf("broker URL = %q, want tcp://localhost:1883", got)
	}
	if opts.ClientID != "gatewatch-test" {
		t.Errorf("client ID = %q, want gatewatch-test", opts.ClientID)
	}
	if !opts.AutoReconnect {
		t.Error("auto-reconnect should be enabled")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)
	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("scheme = %q, want ssl", got)
	}
	if opts.TLSConfig == nil {
		t.Fatal("TLS config should be set")
	}
	if opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Errorf("TLS min version = %d, want %d", opts.TLSConfig.MinVersion, tlsMinVersion)
	}
}

func TestBuildClientOptions_Auth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "core"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)
	if opts.Username != "core" || opts.Password != "secret" {
		t.Error("credentials should be applied when a username is configured")
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("gatewatch-test")
	if !strings.Contains(online, `"status":"online"`) {
		t.Errorf("online payload missing status: %s", online)
	}

	offline := buildOfflinePayload("gatewatch-test")
	if !strings.Contains(offline, `"status":"offline"`) ||
		!strings.Contains(offline, "graceful_shutdown") {
		t.Errorf("offline payload should carry the graceful reason: %s", offline)
	}
}

func TestPublish_Validation(t *testing.T) {
	c := &Client{cfg: testConfig(), subscriptions: make(map[string]subscription)}

	if err := c.Publish("", []byte("x"), 1, false); err != ErrInvalidTopic {
		t.Errorf("empty topic: error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("gatewatch/test", []byte("x"), 3, false); err != ErrInvalidQoS {
		t.Errorf("qos 3: error = %v, want ErrInvalidQoS", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := &Client{cfg: testConfig(), subscriptions: make(map[string]subscription)}

	if err := c.Subscribe("", 1, func(string, []byte) error { return nil }); err != ErrInvalidTopic {
		t.Errorf("empty topic: error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("gatewatch/test", 1, nil); err == nil {
		t.Error("nil handler should be rejected")
	}
}
