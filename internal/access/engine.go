package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gatewatch/gatewatch-core/internal/credential"
	"github.com/gatewatch/gatewatch-core/internal/ledger"
)

// Reason explains a denied scan. Denials are outcomes, not errors: the scan
// was processed correctly and the answer was no.
type Reason string

const (
	ReasonUnknownToken  Reason = "unknown_token"
	ReasonInactiveUser  Reason = "inactive_user"
	ReasonBadCredential Reason = "bad_credential"
	ReasonCancelled     Reason = "cancelled"
	ReasonDuplicateScan Reason = "duplicate_scan"
)

// PINPrompt supplies the PIN for an entry attempt. ok=false means the
// collaborator cancelled (or the transport carried no PIN), which denies the
// entry without counting as a failed credential.
type PINPrompt func() (pin string, ok bool)

// Decision is the outcome of one scan. Granted decisions carry the recorded
// action and event; denied decisions carry a Reason and no event.
type Decision struct {
	Granted   bool                `json:"granted"`
	Action    ledger.Action       `json:"action,omitempty"`
	Reason    Reason              `json:"reason,omitempty"`
	UserID    string              `json:"user_id,omitempty"`
	Name      string              `json:"name,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Event     *ledger.AccessEvent `json:"-"`
}

// debouncePruneThreshold bounds the debounce map: once it grows past this
// many tokens, expired entries are dropped on the next scan.
const debouncePruneThreshold = 1024

// Engine turns raw badge tokens into IN/OUT ledger events.
//
// A user's session state is never stored: it is derived from their latest
// ledger event at decision time, inside a per-user critical section, and the
// append itself re-verifies the expectation transactionally. Two scans for
// different users proceed in parallel; two for the same user serialize.
type Engine struct {
	events   ledger.Repository
	users    UserRepository
	hasher   *credential.Hasher
	location string
	window   time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	lastScan map[string]time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewEngine creates a decision engine writing events for the given gate
// location. A non-positive debounce window disables debouncing.
func NewEngine(events ledger.Repository, users UserRepository, hasher *credential.Hasher, location string, window time.Duration, logger *slog.Logger) *Engine {
	return &Engine{
		events:   events,
		users:    users,
		hasher:   hasher,
		location: location,
		window:   window,
		logger:   logger,
		lastScan: make(map[string]time.Time),
		locks:    make(map[string]*sync.Mutex),
	}
}

// SubmitScan processes one badge presentation.
//
// The sequence is: debounce, token lookup, status check, then a per-user
// critical section that reads the latest ledger action and appends the
// complement. Exits need no PIN; entries invoke prompt and verify before
// anything is written. A failure to persist is returned as an error, never
// reported as a grant or dressed up as a denial. ErrConflict from the ledger
// propagates so the caller can retry the whole scan.
func (e *Engine) SubmitScan(ctx context.Context, token string, prompt PINPrompt) (*Decision, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidRequest)
	}

	now := time.Now().UTC()
	if e.debounced(token, now) {
		e.logger.Debug("scan debounced")
		return &Decision{Reason: ReasonDuplicateScan, Timestamp: now}, nil
	}

	decision, err := e.decide(ctx, token, prompt, now)
	if err != nil {
		// An errored scan must stay retryable: the cooldown only ever
		// suppresses scans that produced a decision, so the caller's retry
		// reaches the ledger instead of being answered duplicate_scan.
		e.resetDebounce(token)
		return nil, err
	}
	return decision, nil
}

// decide runs the lookup-verify-append sequence for one scan. The debounce
// entry for the token is already armed; callers clear it if decide errors.
func (e *Engine) decide(ctx context.Context, token string, prompt PINPrompt, now time.Time) (*Decision, error) {
	user, err := e.users.GetByToken(ctx, token)
	if errors.Is(err, ErrUserNotFound) {
		e.logger.Info("scan denied", "reason", ReasonUnknownToken)
		return &Decision{Reason: ReasonUnknownToken, Timestamp: now}, nil
	}
	if err != nil {
		return nil, err
	}

	denied := func(reason Reason) *Decision {
		e.logger.Info("scan denied", "user_id", user.ID, "reason", reason)
		return &Decision{
			Reason:    reason,
			UserID:    user.ID,
			Name:      user.Name,
			Timestamp: time.Now().UTC(),
		}
	}

	if user.Status != StatusActive {
		return denied(ReasonInactiveUser), nil
	}

	lock := e.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	last, found, err := e.events.LastAction(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if found && last == ledger.ActionIn {
		return e.record(ctx, user, ledger.ActionOut, &last)
	}

	// Outside: entry requires the PIN.
	pin, ok := prompt()
	if !ok {
		return denied(ReasonCancelled), nil
	}

	match, err := e.hasher.Verify(pin, user.PINSalt, user.PINHash)
	if err != nil {
		return nil, fmt.Errorf("verifying pin: %w", err)
	}
	if !match {
		return denied(ReasonBadCredential), nil
	}

	var expect *ledger.Action
	if found {
		expect = &last
	}
	return e.record(ctx, user, ledger.ActionIn, expect)
}

// record appends the event conditionally and builds the granted decision.
func (e *Engine) record(ctx context.Context, user *User, action ledger.Action, expect *ledger.Action) (*Decision, error) {
	event, err := e.events.AppendIf(ctx, user.ID, action, e.location, expect)
	if err != nil {
		return nil, err
	}

	e.logger.Info("scan granted",
		"user_id", user.ID,
		"action", action,
		"location", e.location,
	)

	return &Decision{
		Granted:   true,
		Action:    action,
		UserID:    user.ID,
		Name:      user.Name,
		Timestamp: event.Timestamp,
		Event:     event,
	}, nil
}

// resetDebounce disarms the cooldown for a token whose scan errored.
func (e *Engine) resetDebounce(token string) {
	if e.window <= 0 {
		return
	}

	e.mu.Lock()
	delete(e.lastScan, token)
	e.mu.Unlock()
}

// debounced records the scan time and reports whether an identical token was
// already seen inside the cooldown window.
func (e *Engine) debounced(token string, now time.Time) bool {
	if e.window <= 0 {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if last, seen := e.lastScan[token]; seen && now.Sub(last) < e.window {
		return true
	}
	e.lastScan[token] = now

	if len(e.lastScan) > debouncePruneThreshold {
		for t, ts := range e.lastScan {
			if now.Sub(ts) >= e.window {
				delete(e.lastScan, t)
			}
		}
	}
	return false
}

// userLock returns the mutex serializing decisions for one user.
func (e *Engine) userLock(userID string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()

	lock, ok := e.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[userID] = lock
	}
	return lock
}
