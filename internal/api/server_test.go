package api

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
)

func TestHealth_NoAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/v1/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}

	body := decodeJSON(t, resp)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	// Valid credentials return a usable bearer token.
	jwt := ts.login(t)

	resp := ts.request(t, http.MethodGet, "/api/v1/users", jwt, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated request status = %d, want 200", resp.StatusCode)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", testAdminUser, "nope"},
		{"unknown username", "ghost", testAdminPassword},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
				"username": tc.username,
				"password": tc.password,
			})
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", resp.StatusCode)
			}
		})
	}
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
		{"wrong signature", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhZG1pbiJ9.bad"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.request(t, http.MethodGet, "/api/v1/users", tc.token, nil)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", resp.StatusCode)
			}
		})
	}
}

func TestUserLifecycle(t *testing.T) {
	ts := newTestServer(t)
	jwt := ts.login(t)

	created := ts.enroll(t, jwt, "Alice", "1234")
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("enroll response missing id")
	}
	if token, _ := created["token"].(string); len(token) != 64 {
		t.Errorf("badge token length = %d, want 64", len(token))
	}
	if created["role"] != "Staff" {
		t.Errorf("default role = %v, want Staff", created["role"])
	}

	// Duplicate name conflicts.
	resp := ts.request(t, http.MethodPost, "/api/v1/users", jwt, map[string]string{
		"name": "Alice", "pin": "9999",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate enroll status = %d, want 409", resp.StatusCode)
	}

	// Listed.
	list := decodeJSON(t, ts.request(t, http.MethodGet, "/api/v1/users", jwt, nil))
	if count, _ := list["count"].(float64); count != 1 {
		t.Errorf("user count = %v, want 1", list["count"])
	}

	// Partial update changes the role only.
	updated := decodeJSON(t, ts.request(t, http.MethodPatch, "/api/v1/users/"+id, jwt,
		map[string]string{"role": "Contractor"}))
	if updated["role"] != "Contractor" {
		t.Errorf("updated role = %v, want Contractor", updated["role"])
	}
	if updated["name"] != "Alice" {
		t.Errorf("name changed unexpectedly: %v", updated["name"])
	}

	// Deactivate.
	resp = ts.request(t, http.MethodPut, "/api/v1/users/"+id+"/status", jwt,
		map[string]string{"status": "Inactive"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status change = %d, want 200", resp.StatusCode)
	}

	resp = ts.request(t, http.MethodPut, "/api/v1/users/"+id+"/status", jwt,
		map[string]string{"status": "Banned"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid status change = %d, want 400", resp.StatusCode)
	}

	// Delete, then 404.
	resp = ts.request(t, http.MethodDelete, "/api/v1/users/"+id, jwt, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}

	resp = ts.request(t, http.MethodGet, "/api/v1/users/"+id, jwt, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted user status = %d, want 404", resp.StatusCode)
	}
}

func TestScan_EntryAndExit(t *testing.T) {
	ts := newTestServer(t)
	jwt := ts.login(t)

	created := ts.enroll(t, jwt, "Bob", "4321")
	badge, _ := created["token"].(string)

	// Entry needs the PIN.
	entry := decodeJSON(t, ts.request(t, http.MethodPost, "/api/v1/scan", jwt,
		map[string]string{"token": badge, "pin": "4321"}))
	if entry["granted"] != true || entry["action"] != "IN" {
		t.Fatalf("entry decision = %v", entry)
	}

	// Occupancy reflects the entry.
	inside := decodeJSON(t, ts.request(t, http.MethodGet, "/api/v1/stats/inside-count", jwt, nil))
	if n, _ := inside["inside"].(float64); n != 1 {
		t.Errorf("inside = %v, want 1", inside["inside"])
	}

	// Exit never prompts, so no PIN is sent.
	exit := decodeJSON(t, ts.request(t, http.MethodPost, "/api/v1/scan", jwt,
		map[string]string{"token": badge}))
	if exit["granted"] != true || exit["action"] != "OUT" {
		t.Fatalf("exit decision = %v", exit)
	}
}

func TestScan_Denials(t *testing.T) {
	ts := newTestServer(t)
	jwt := ts.login(t)

	created := ts.enroll(t, jwt, "Carol", "0000")
	badge, _ := created["token"].(string)

	cases := []struct {
		name   string
		body   map[string]string
		reason string
	}{
		{"unknown badge", map[string]string{"token": strings.Repeat("f", 64), "pin": "0000"}, "unknown_token"},
		{"wrong pin", map[string]string{"token": badge, "pin": "1111"}, "bad_credential"},
		{"no pin on entry", map[string]string{"token": badge}, "cancelled"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := decodeJSON(t, ts.request(t, http.MethodPost, "/api/v1/scan", jwt, tc.body))
			if decision["granted"] != false {
				t.Errorf("granted = %v, want false", decision["granted"])
			}
			if decision["reason"] != tc.reason {
				t.Errorf("reason = %v, want %s", decision["reason"], tc.reason)
			}
		})
	}

	resp := ts.request(t, http.MethodPost, "/api/v1/scan", jwt, map[string]string{"pin": "0000"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing token status = %d, want 400", resp.StatusCode)
	}
}

func TestExport_CSV(t *testing.T) {
	ts := newTestServer(t)
	jwt := ts.login(t)

	created := ts.enroll(t, jwt, "Dave", "2468")
	badge, _ := created["token"].(string)

	decodeJSON(t, ts.request(t, http.MethodPost, "/api/v1/scan", jwt,
		map[string]string{"token": badge, "pin": "2468"}))
	decodeJSON(t, ts.request(t, http.MethodPost, "/api/v1/scan", jwt,
		map[string]string{"token": badge}))

	resp := ts.request(t, http.MethodGet, "/api/v1/events/export", jwt, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}

	rows, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatalf("parsing CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3 (header + 2 events)", len(rows))
	}
	wantHeader := []string{"id", "user_id", "action", "timestamp", "location"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}
	if rows[1][2] != "IN" || rows[2][2] != "OUT" {
		t.Errorf("actions = %q, %q; want IN, OUT (chronological)", rows[1][2], rows[2][2])
	}
}

func TestRecentEventsAndDailyStats(t *testing.T) {
	ts := newTestServer(t)
	jwt := ts.login(t)

	created := ts.enroll(t, jwt, "Erin", "1357")
	badge, _ := created["token"].(string)

	decodeJSON(t, ts.request(t, http.MethodPost, "/api/v1/scan", jwt,
		map[string]string{"token": badge, "pin": "1357"}))

	recent := decodeJSON(t, ts.request(t, http.MethodGet, "/api/v1/events/recent?limit=10", jwt, nil))
	if count, _ := recent["count"].(float64); count != 1 {
		t.Errorf("recent count = %v, want 1", recent["count"])
	}
	events, _ := recent["events"].([]any)
	if len(events) == 1 {
		ev, _ := events[0].(map[string]any)
		if ev["name"] != "Erin" {
			t.Errorf("event name = %v, want Erin", ev["name"])
		}
	}

	daily := decodeJSON(t, ts.request(t, http.MethodGet, "/api/v1/stats/daily?days=7", jwt, nil))
	days, _ := daily["days"].([]any)
	if len(days) != 1 {
		t.Fatalf("daily stats length = %d, want 1", len(days))
	}
	day, _ := days[0].(map[string]any)
	if in, _ := day["in"].(float64); in != 1 {
		t.Errorf("daily in = %v, want 1", day["in"])
	}
}

func TestInsideList(t *testing.T) {
	ts := newTestServer(t)
	jwt := ts.login(t)

	created := ts.enroll(t, jwt, "Frank", "8642")
	badge, _ := created["token"].(string)

	decodeJSON(t, ts.request(t, http.MethodPost, "/api/v1/scan", jwt,
		map[string]string{"token": badge, "pin": "8642"}))

	inside := decodeJSON(t, ts.request(t, http.MethodGet, "/api/v1/inside", jwt, nil))
	if count, _ := inside["count"].(float64); count != 1 {
		t.Fatalf("inside count = %v, want 1", inside["count"])
	}
	entries, _ := inside["inside"].([]any)
	entry, _ := entries[0].(map[string]any)
	if entry["name"] != "Frank" {
		t.Errorf("inside name = %v, want Frank", entry["name"])
	}
}
