package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AdminRepository defines the interface for operator account persistence.
type AdminRepository interface {
	Create(ctx context.Context, admin *Admin) error
	GetByUsername(ctx context.Context, username string) (*Admin, error)
	Count(ctx context.Context) (int, error)
}

// SQLiteAdminRepository implements AdminRepository using SQLite.
type SQLiteAdminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a new SQLite-backed admin repository.
func NewAdminRepository(db *sql.DB) *SQLiteAdminRepository {
	return &SQLiteAdminRepository{db: db}
}

// Create inserts a new operator account. The ID is generated if empty.
func (r *SQLiteAdminRepository) Create(ctx context.Context, admin *Admin) error {
	if admin.ID == "" {
		admin.ID = "adm-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	admin.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (id, username, pass_hash, pass_salt, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		admin.ID, admin.Username, admin.PassHash, admin.PassSalt, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAdminExists
		}
		return fmt.Errorf("creating admin: %w", err)
	}

	return nil
}

// GetByUsername retrieves an operator account by username.
func (r *SQLiteAdminRepository) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	var a Admin
	var createdAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, pass_hash, pass_salt, created_at FROM admins WHERE username = ?`,
		username,
	).Scan(&a.ID, &a.Username, &a.PassHash, &a.PassSalt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying admin: %w", err)
	}

	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &a, nil
}

// Count returns the total number of operator accounts.
func (r *SQLiteAdminRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admins").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return count, nil
}
