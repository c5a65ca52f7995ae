// Package database provides the SQLite connection and migration runner for
// GateWatch.
//
// The connection is opened with WAL mode, a busy timeout, and a single-writer
// pool, which also serializes the ledger's conditional appends at the storage
// layer. Migrations are embedded into the binary by the top-level migrations
// package and applied one transaction at a time.
package database
