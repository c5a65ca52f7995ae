// Package ledger provides the append-only access-event store.
//
// The ledger is the sole source of truth for who is inside: a user's session
// is open iff their most recent event is an IN. There is no stored
// "is inside" flag anywhere — every view is recomputed from the events.
// Events are never mutated or deleted in normal operation.
package ledger

import (
	"errors"
	"time"
)

// Action is the direction recorded on an access event.
type Action string

const (
	// ActionIn records an entry through the gate.
	ActionIn Action = "IN"

	// ActionOut records an exit through the gate.
	ActionOut Action = "OUT"
)

// IsValid reports whether the action is one of the two known directions.
func (a Action) IsValid() bool {
	return a == ActionIn || a == ActionOut
}

// AccessEvent is a single immutable ledger entry.
//
// IDs are assigned by the store and increase monotonically with insertion
// order; timestamps are server-assigned UTC. When two events carry the same
// timestamp (the stored resolution is one second), the higher ID is the more
// recent — every "latest event" query in this package orders by timestamp
// then ID for exactly that reason.
type AccessEvent struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Location  string    `json:"location"`
}

// EventWithName is an access event joined with the user's display name for
// audit display. Name is empty for events whose user was hard-deleted.
type EventWithName struct {
	AccessEvent
	Name string `json:"name"`
}

// InsideEntry describes one user whose latest event is an IN.
type InsideEntry struct {
	UserID string    `json:"user_id"`
	Name   string    `json:"name"`
	Role   string    `json:"role"`
	Since  time.Time `json:"since"`
}

// DailyCount aggregates one calendar day of ledger activity.
type DailyCount struct {
	Date string `json:"date"` // YYYY-MM-DD
	In   int    `json:"in"`
	Out  int    `json:"out"`
}

// Sentinel errors for ledger operations.
var (
	// ErrConflict is returned by AppendIf when the user's last action no
	// longer matches the caller's expectation. The caller should re-read
	// state and retry the decision from scratch.
	ErrConflict = errors.New("ledger: concurrent modification detected")

	// ErrInvalidAction is returned when an unknown action is appended.
	ErrInvalidAction = errors.New("ledger: invalid action")
)
