package database

import (
	"context"
	"testing"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		in          string
		wantVersion string
		wantName    string
		wantErr     bool
	}{
		{"20260301_000000_initial_schema.up.sql", "20260301_000000", "initial_schema", false},
		{"20260301_000000_initial_schema.down.sql", "20260301_000000", "initial_schema", false},
		{"20260415_120000_add_index.up.sql", "20260415_120000", "add_index", false},
		{"bogus.up.sql", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			version, name, err := parseMigrationFilename(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMigrationFilename() error = %v", err)
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
		})
	}
}

func TestMigrate_NoEmbeddedFS(t *testing.T) {
	// The database package itself ships no migrations; with an unset
	// MigrationsFS, Migrate is a no-op that still creates the bookkeeping table.
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("schema_migrations should exist: %v", err)
	}
	if count != 0 {
		t.Errorf("applied migrations = %d, want 0", count)
	}
}
