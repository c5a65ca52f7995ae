package access

import (
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gatewatch/gatewatch-core/internal/credential"
	"github.com/gatewatch/gatewatch-core/internal/ledger"
)

// testDB opens a throwaway SQLite database mirroring the production schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "access_test.db")
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE admins (
			id         TEXT PRIMARY KEY,
			username   TEXT NOT NULL UNIQUE,
			pass_hash  TEXT NOT NULL,
			pass_salt  TEXT NOT NULL,
			created_at TEXT NOT NULL
		) STRICT;

		CREATE TABLE users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL UNIQUE,
			role       TEXT NOT NULL DEFAULT 'Staff',
			token      TEXT NOT NULL UNIQUE,
			pin_hash   TEXT NOT NULL,
			pin_salt   TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'Active',
			created_at TEXT NOT NULL
		) STRICT;

		CREATE TABLE access_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id   TEXT NOT NULL,
			action    TEXT NOT NULL CHECK (action IN ('IN', 'OUT')),
			timestamp TEXT NOT NULL,
			location  TEXT NOT NULL
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating test schema: %v", err)
	}
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Reduced iteration count keeps the suite fast; correctness is independent
// of the work factor.
func testHasher() *credential.Hasher {
	return credential.NewHasher(1000)
}

// testStack wires real repositories, the service, and an engine over one
// temporary database.
type testStack struct {
	db      *sql.DB
	users   *SQLiteUserRepository
	admins  *SQLiteAdminRepository
	events  *ledger.SQLiteRepository
	service *Service
	engine  *Engine
}

// newTestStack builds the stack with the given debounce window.
func newTestStack(t *testing.T, window time.Duration) *testStack {
	t.Helper()

	db := testDB(t)
	users := NewUserRepository(db)
	admins := NewAdminRepository(db)
	events := ledger.NewSQLiteRepository(db)
	hasher := testHasher()
	logger := discardLogger()

	return &testStack{
		db:      db,
		users:   users,
		admins:  admins,
		events:  events,
		service: NewService(users, admins, events, hasher, logger),
		engine:  NewEngine(events, users, hasher, "main-gate", window, logger),
	}
}

// pinPrompt returns a prompt that always supplies the given PIN.
func pinPrompt(pin string) PINPrompt {
	return func() (string, bool) { return pin, true }
}

// cancelPrompt simulates a collaborator walking away from the keypad.
func cancelPrompt() (string, bool) { return "", false }

// eventCount counts ledger rows for one user and action.
func eventCount(t *testing.T, db *sql.DB, userID string, action ledger.Action) int {
	t.Helper()
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM access_events WHERE user_id = ? AND action = ?`,
		userID, string(action),
	).Scan(&n)
	if err != nil {
		t.Fatalf("counting events: %v", err)
	}
	return n
}
