package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDecision records one scan outcome as a telemetry point.
//
// The write is non-blocking; points are batched and sent asynchronously.
// The ledger remains the source of truth — telemetry is a mirror for
// dashboards and can be lost without affecting access history.
//
// Measurement: access_decision. Tags: gate, action, reason (low
// cardinality). Fields: granted as 0/1 for counting.
func (c *Client) WriteDecision(gate, action, reason string, granted bool) {
	if !c.IsConnected() {
		return
	}

	grantedField := 0
	if granted {
		grantedField = 1
	}
	if action == "" {
		action = "none"
	}
	if reason == "" {
		reason = "none"
	}

	point := write.NewPoint(
		"access_decision",
		map[string]string{
			"gate":   gate,
			"action": action,
			"reason": reason,
		},
		map[string]interface{}{
			"granted": grantedField,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteOccupancy records the current number of users inside.
//
// Sampled after each granted decision so dashboards can chart occupancy
// over time without querying the core.
func (c *Client) WriteOccupancy(gate string, inside int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"occupancy",
		map[string]string{
			"gate": gate,
		},
		map[string]interface{}{
			"inside": inside,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods. Tags should
// stay low cardinality.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., backfilled data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
