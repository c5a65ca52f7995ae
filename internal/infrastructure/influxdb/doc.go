// Package influxdb provides InfluxDB connectivity for GateWatch Core.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, decision telemetry writes, and health monitoring.
//
// # Purpose
//
// This package mirrors scan decisions and occupancy samples into a
// time-series store for dashboards. It is strictly optional: the SQLite
// ledger holds the authoritative access history, and losing telemetry
// points never loses an access event.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "gatewatch",
//	    Bucket:  "telemetry",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteDecision("main-gate", "IN", "", true)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are surfaced via the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
