// Package logging provides structured logging for GateWatch.
//
// It wraps log/slog with service-wide default attributes and config-driven
// level, format, and output selection. Components derive scoped loggers with
// With("component", name).
package logging
