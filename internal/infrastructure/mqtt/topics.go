package mqtt

import "fmt"

// Topic prefixes for the GateWatch MQTT namespace.
//
// Gate topics follow gatewatch/gate/{gate}/{channel}: scanner hardware
// publishes presentations to the scan channel, the core answers on the
// decision channel.
const (
	// TopicPrefixGate is the base for all per-gate topics.
	TopicPrefixGate = "gatewatch/gate"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "gatewatch/system"
)

// Topics provides builders for GateWatch MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	scanTopic := topics.GateScan("main-gate")
//	// Returns: "gatewatch/gate/main-gate/scan"
type Topics struct{}

// GateScan returns the topic scanner hardware publishes token presentations to.
//
// Example: gatewatch/gate/main-gate/scan
func (Topics) GateScan(gate string) string {
	return fmt.Sprintf("%s/%s/scan", TopicPrefixGate, gate)
}

// GateDecision returns the topic the core publishes scan outcomes to.
//
// Example: gatewatch/gate/main-gate/decision
func (Topics) GateDecision(gate string) string {
	return fmt.Sprintf("%s/%s/decision", TopicPrefixGate, gate)
}

// SystemStatus returns the online/offline status topic.
//
// Example: gatewatch/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllGateScans returns a pattern matching scan topics for every gate.
//
// Pattern: gatewatch/gate/+/scan
func (Topics) AllGateScans() string {
	return fmt.Sprintf("%s/+/scan", TopicPrefixGate)
}

// AllGateDecisions returns a pattern matching decision topics for every gate.
//
// Pattern: gatewatch/gate/+/decision
func (Topics) AllGateDecisions() string {
	return fmt.Sprintf("%s/+/decision", TopicPrefixGate)
}
