// Package scanner connects gate scanner hardware to the decision engine
// over MQTT. Scanners publish decoded badge tokens to the per-gate scan
// topic; the feed runs each one through the engine and publishes the
// outcome on the decision topic for displays and door controllers.
package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatewatch/gatewatch-core/internal/access"
	"github.com/gatewatch/gatewatch-core/internal/infrastructure/mqtt"
	"github.com/gatewatch/gatewatch-core/internal/ledger"
)

// Engine is the decision surface the feed drives.
type Engine interface {
	SubmitScan(ctx context.Context, token string, prompt access.PINPrompt) (*access.Decision, error)
}

// Transport is the MQTT surface the feed needs. Satisfied by *mqtt.Client.
type Transport interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Telemetry receives a fire-and-forget copy of each decision.
// Satisfied by *influxdb.Client; may be nil.
type Telemetry interface {
	WriteDecision(gate, action, reason string, granted bool)
}

// scanMessage is the payload scanner hardware publishes. The PIN is present
// only when the gate keypad collected one; entry attempts without a PIN are
// treated as cancelled.
type scanMessage struct {
	Token string `json:"token"`
	PIN   string `json:"pin,omitempty"`
}

// decisionMessage is the payload published on the decision topic.
type decisionMessage struct {
	Granted   bool   `json:"granted"`
	Action    string `json:"action,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Name      string `json:"name,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Feed subscribes one gate's scan topic and answers on its decision topic.
type Feed struct {
	transport Transport
	engine    Engine
	gate      string
	qos       byte
	telemetry Telemetry
	logger    *slog.Logger
}

// New creates a feed for the given gate. telemetry may be nil.
func New(transport Transport, engine Engine, gate string, qos byte, telemetry Telemetry, logger *slog.Logger) *Feed {
	return &Feed{
		transport: transport,
		engine:    engine,
		gate:      gate,
		qos:       qos,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Start subscribes to the gate's scan topic. The context bounds the engine
// calls made for each received message.
func (f *Feed) Start(ctx context.Context) error {
	topic := mqtt.Topics{}.GateScan(f.gate)
	if err := f.transport.Subscribe(topic, f.qos, func(_ string, payload []byte) error {
		return f.handleScan(ctx, payload)
	}); err != nil {
		return fmt.Errorf("subscribing to scan topic: %w", err)
	}

	f.logger.Info("scanner feed started", "gate", f.gate, "topic", topic)
	return nil
}

// handleScan processes one scan payload end to end.
func (f *Feed) handleScan(ctx context.Context, payload []byte) error {
	var msg scanMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding scan payload: %w", err)
	}
	if msg.Token == "" {
		return fmt.Errorf("scan payload missing token")
	}

	prompt := func() (string, bool) {
		return msg.PIN, msg.PIN != ""
	}

	decision, err := f.engine.SubmitScan(ctx, msg.Token, prompt)
	if errors.Is(err, ledger.ErrConflict) {
		// Another scan for the same user won the race; the engine re-reads
		// the ledger on retry, so one retry resolves it.
		decision, err = f.engine.SubmitScan(ctx, msg.Token, prompt)
	}
	if err != nil {
		return fmt.Errorf("submitting scan: %w", err)
	}

	if f.telemetry != nil {
		f.telemetry.WriteDecision(f.gate, string(decision.Action), string(decision.Reason), decision.Granted)
	}

	return f.publishDecision(decision)
}

// publishDecision answers on the gate's decision topic.
func (f *Feed) publishDecision(decision *access.Decision) error {
	out := decisionMessage{
		Granted:   decision.Granted,
		Action:    string(decision.Action),
		Reason:    string(decision.Reason),
		Name:      decision.Name,
		Timestamp: decision.Timestamp.Format(time.RFC3339),
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding decision: %w", err)
	}

	topic := mqtt.Topics{}.GateDecision(f.gate)
	if err := f.transport.Publish(topic, payload, f.qos, false); err != nil {
		return fmt.Errorf("publishing decision: %w", err)
	}
	return nil
}
