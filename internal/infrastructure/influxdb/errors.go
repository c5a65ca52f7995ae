package influxdb

import "errors"

// Sentinel errors for the telemetry sink. Because telemetry is optional,
// callers usually branch on ErrDisabled at startup and treat the rest as
// log-and-continue conditions.
var (
	// ErrNotConnected: the client has no live InfluxDB connection.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed: the startup ping to the server failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed: a synchronous write failed. Batched writes surface
	// their failures through the SetOnError callback instead.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled: telemetry is switched off in the configuration.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
