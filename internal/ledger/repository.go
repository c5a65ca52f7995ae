package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Query limit clamping.
const (
	defaultRecentLimit = 100
	maxRecentLimit     = 500
)

// Repository defines the interface for access-event persistence.
type Repository interface {
	Append(ctx context.Context, userID string, action Action, location string) (*AccessEvent, error)
	AppendIf(ctx context.Context, userID string, action Action, location string, expectLast *Action) (*AccessEvent, error)
	LastAction(ctx context.Context, userID string) (Action, bool, error)
	CurrentlyInside(ctx context.Context) ([]InsideEntry, error)
	TotalInside(ctx context.Context) (int, error)
	RecentEvents(ctx context.Context, limit int) ([]EventWithName, error)
	DailyCounts(ctx context.Context, days int) ([]DailyCount, error)
	ExportAll(ctx context.Context, fn func(AccessEvent) error) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed event store.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Append inserts a new immutable event and assigns its ID and timestamp.
// No expectation about the user's prior state is checked.
func (r *SQLiteRepository) Append(ctx context.Context, userID string, action Action, location string) (*AccessEvent, error) {
	return r.append(ctx, userID, action, location, nil, false)
}

// AppendIf inserts a new event only if the user's current last action matches
// the expectation: a nil expectLast requires the user to have no events yet;
// otherwise the latest event's action must equal *expectLast.
//
// The check and the insert run in one transaction, so two racing scans for
// the same user cannot both observe OUTSIDE and both record an IN. The loser
// gets ErrConflict and must re-read state before retrying.
func (r *SQLiteRepository) AppendIf(ctx context.Context, userID string, action Action, location string, expectLast *Action) (*AccessEvent, error) {
	return r.append(ctx, userID, action, location, expectLast, true)
}

// append is the shared insert path. When checked is true, the user's current
// last action must match expectLast (nil meaning "no events yet") or the
// insert is abandoned with ErrConflict.
func (r *SQLiteRepository) append(ctx context.Context, userID string, action Action, location string, expectLast *Action, checked bool) (*AccessEvent, error) {
	if userID == "" {
		return nil, fmt.Errorf("ledger: user id is required")
	}
	if !action.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting append transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if checked {
		last, found, lastErr := lastActionTx(ctx, tx, userID)
		if lastErr != nil {
			return nil, lastErr
		}
		if found != (expectLast != nil) || (found && last != *expectLast) {
			return nil, ErrConflict
		}
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO access_events (user_id, action, timestamp, location) VALUES (?, ?, ?, ?)`,
		userID, string(action), now.Format(time.RFC3339), location,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting access event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading event id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing access event: %w", err)
	}

	return &AccessEvent{
		ID:        id,
		UserID:    userID,
		Action:    action,
		Timestamp: now.Truncate(time.Second),
		Location:  location,
	}, nil
}

// LastAction returns the action of the user's most recent event, with a
// found flag that is false if the user has never been scanned.
func (r *SQLiteRepository) LastAction(ctx context.Context, userID string) (Action, bool, error) {
	var action string
	err := r.db.QueryRowContext(ctx,
		`SELECT action FROM access_events WHERE user_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1`,
		userID,
	).Scan(&action)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying last action: %w", err)
	}
	return Action(action), true, nil
}

// CurrentlyInside returns every user whose latest event is an IN, most
// recent entry first. Ties in timestamp resolve to the higher event ID.
func (r *SQLiteRepository) CurrentlyInside(ctx context.Context) ([]InsideEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.role, e.timestamp
		FROM users u
		JOIN access_events e ON e.user_id = u.id
		WHERE e.id = (
			SELECT id FROM access_events
			WHERE user_id = u.id
			ORDER BY timestamp DESC, id DESC
			LIMIT 1
		)
		AND e.action = 'IN'
		ORDER BY e.timestamp DESC, e.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying currently inside: %w", err)
	}
	defer rows.Close()

	var entries []InsideEntry
	for rows.Next() {
		var entry InsideEntry
		var since string
		if err := rows.Scan(&entry.UserID, &entry.Name, &entry.Role, &since); err != nil {
			return nil, fmt.Errorf("scanning inside entry: %w", err)
		}
		entry.Since, err = parseTimestamp(since)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inside entries: %w", err)
	}

	if entries == nil {
		entries = []InsideEntry{}
	}
	return entries, nil
}

// TotalInside returns the number of users whose latest event is an IN.
func (r *SQLiteRepository) TotalInside(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users u
		WHERE (
			SELECT action FROM access_events
			WHERE user_id = u.id
			ORDER BY timestamp DESC, id DESC
			LIMIT 1
		) = 'IN'`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("counting users inside: %w", err)
	}
	return total, nil
}

// RecentEvents returns the latest events joined with user names, descending
// by timestamp then ID. Events of hard-deleted users appear with an empty name.
func (r *SQLiteRepository) RecentEvents(ctx context.Context, limit int) ([]EventWithName, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.user_id, COALESCE(u.name, ''), e.action, e.timestamp, e.location
		FROM access_events e
		LEFT JOIN users u ON u.id = e.user_id
		ORDER BY e.timestamp DESC, e.id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent events: %w", err)
	}
	defer rows.Close()

	var events []EventWithName
	for rows.Next() {
		var e EventWithName
		var action, ts string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &action, &ts, &e.Location); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Action = Action(action)
		e.Timestamp, err = parseTimestamp(ts)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	if events == nil {
		events = []EventWithName{}
	}
	return events, nil
}

// DailyCounts returns per-day IN/OUT totals for the trailing N calendar days
// that have at least one event, ascending by date. Days without events are
// omitted; callers wanting zero-filled ranges post-process.
func (r *SQLiteRepository) DailyCounts(ctx context.Context, days int) ([]DailyCount, error) {
	if days <= 0 {
		days = 7
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(timestamp, 1, 10) AS day,
		       SUM(CASE WHEN action = 'IN' THEN 1 ELSE 0 END) AS ins,
		       SUM(CASE WHEN action = 'OUT' THEN 1 ELSE 0 END) AS outs
		FROM access_events
		GROUP BY day
		ORDER BY day DESC
		LIMIT ?`,
		days,
	)
	if err != nil {
		return nil, fmt.Errorf("querying daily counts: %w", err)
	}
	defer rows.Close()

	var counts []DailyCount
	for rows.Next() {
		var c DailyCount
		if err := rows.Scan(&c.Date, &c.In, &c.Out); err != nil {
			return nil, fmt.Errorf("scanning daily count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating daily counts: %w", err)
	}

	// The query walks newest-first to apply the trailing-days limit;
	// callers get oldest-first.
	for i, j := 0, len(counts)-1; i < j; i, j = i+1, j-1 {
		counts[i], counts[j] = counts[j], counts[i]
	}

	if counts == nil {
		counts = []DailyCount{}
	}
	return counts, nil
}

// ExportAll streams every event in chronological order to fn.
// Iteration stops at the first error fn returns.
func (r *SQLiteRepository) ExportAll(ctx context.Context, fn func(AccessEvent) error) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, timestamp, location
		FROM access_events
		ORDER BY timestamp ASC, id ASC`,
	)
	if err != nil {
		return fmt.Errorf("querying events for export: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e AccessEvent
		var action, ts string
		if err := rows.Scan(&e.ID, &e.UserID, &action, &ts, &e.Location); err != nil {
			return fmt.Errorf("scanning export event: %w", err)
		}
		e.Action = Action(action)
		e.Timestamp, err = parseTimestamp(ts)
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating export events: %w", err)
	}
	return nil
}

// lastActionTx reads the user's latest action inside an open transaction.
func lastActionTx(ctx context.Context, tx *sql.Tx, userID string) (Action, bool, error) {
	var action string
	err := tx.QueryRowContext(ctx,
		`SELECT action FROM access_events WHERE user_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1`,
		userID,
	).Scan(&action)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying last action: %w", err)
	}
	return Action(action), true, nil
}

// parseTimestamp parses a stored RFC3339 timestamp.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing event timestamp %q: %w", s, err)
	}
	return t, nil
}
