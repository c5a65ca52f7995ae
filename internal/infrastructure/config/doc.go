// Package config loads and validates GateWatch configuration.
//
// Configuration is read from a YAML file, with defaults applied first and
// environment variables (GATEWATCH_*) applied last. Validation rejects
// configurations that would weaken credential hashing or operator sessions.
package config
