package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gatewatch/gatewatch-core/internal/access"
	"github.com/gatewatch/gatewatch-core/internal/credential"
	"github.com/gatewatch/gatewatch-core/internal/infrastructure/config"
	"github.com/gatewatch/gatewatch-core/internal/infrastructure/logging"
	"github.com/gatewatch/gatewatch-core/internal/ledger"
)

const (
	testJWTSecret     = "test-secret-test-secret-test-secret!"
	testAdminUser     = "admin"
	testAdminPassword = "correct-horse-battery"
)

// testServer bundles the API server, its HTTP listener, and the underlying
// service for direct seeding in tests.
type testServer struct {
	srv     *Server
	http    *httptest.Server
	service *access.Service
}

// newTestServer wires a full stack over a temporary SQLite database, seeds
// one operator account, and serves the router on an httptest listener.
// The decision engine runs with debounce disabled so tests can scan
// back-to-back.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	path := filepath.Join(t.TempDir(), "api_test.db")
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

	logger := &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	hasher := credential.NewHasher(1000)

	users := access.NewUserRepository(db)
	admins := access.NewAdminRepository(db)
	events := ledger.NewSQLiteRepository(db)
	service := access.NewService(users, admins, events, hasher, logger.Logger)
	engine := access.NewEngine(events, users, hasher, "test-gate", 0, logger.Logger)

	seedTestAdmin(t, admins, hasher)

	cfg := config.APIConfig{
		Host: "127.0.0.1",
		Port: 0,
		WebSocket: config.WebSocketConfig{
			PingInterval:   30,
			PongTimeout:    60,
			MaxMessageSize: 4096,
		},
	}
	secCfg := config.SecurityConfig{
		JWT: config.JWTConfig{Secret: testJWTSecret, AccessTokenTTL: 15},
	}

	srv, err := New(Deps{
		Config:   cfg,
		Security: secCfg,
		Logger:   logger,
		Service:  service,
		Engine:   engine,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	srv.hub = NewHub(cfg.WebSocket, logger)

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)

	return &testServer{srv: srv, http: ts, service: service}
}

func seedTestAdmin(t *testing.T, admins access.AdminRepository, hasher *credential.Hasher) {
	t.Helper()

	salt, err := hasher.GenerateSalt()
	if err != nil {
		t.Fatalf("generating salt: %v", err)
	}
	hash, err := hasher.HashSecret(testAdminPassword, salt)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	err = admins.Create(context.Background(), &access.Admin{
		Username: testAdminUser,
		PassHash: hash,
		PassSalt: salt,
	})
	if err != nil {
		t.Fatalf("seeding admin: %v", err)
	}
}

// login authenticates the seeded operator and returns the bearer token.
func (ts *testServer) login(t *testing.T) string {
	t.Helper()

	resp := ts.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": testAdminUser,
		"password": testAdminPassword,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if body.AccessToken == "" {
		t.Fatal("login returned empty access token")
	}
	return body.AccessToken
}

// request issues an HTTP request against the test server. A non-empty token
// is sent as a bearer credential; a non-nil body is JSON-encoded.
func (ts *testServer) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.http.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.http.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// decodeJSON decodes a response body into a generic map and closes it.
func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return m
}

// enroll registers a collaborator through the API and returns the response
// body, which carries the one-time badge token.
func (ts *testServer) enroll(t *testing.T, jwt, name, pin string) map[string]any {
	t.Helper()

	resp := ts.request(t, http.MethodPost, "/api/v1/users", jwt, map[string]string{
		"name": name,
		"pin":  pin,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("enroll status = %d, want 201", resp.StatusCode)
	}
	return decodeJSON(t, resp)
}
