package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gatewatch/gatewatch-core/internal/credential"
	"github.com/gatewatch/gatewatch-core/internal/ledger"
)

// Service is the management surface: enrolment, updates, admin verification,
// and the read-side dashboard queries.
type Service struct {
	users  UserRepository
	admins AdminRepository
	events ledger.Repository
	hasher *credential.Hasher
	logger *slog.Logger
}

// NewService creates the management service.
func NewService(users UserRepository, admins AdminRepository, events ledger.Repository, hasher *credential.Hasher, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		admins: admins,
		events: events,
		hasher: hasher,
		logger: logger,
	}
}

// Enroll registers a new collaborator: issues a badge token, salts and
// hashes the PIN, and stores the record as Active. The returned user carries
// the badge token for printing; the token is an identifier, not a secret on
// its own, since entry still requires the PIN.
func (s *Service) Enroll(ctx context.Context, name, role, pin string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if pin == "" {
		return nil, fmt.Errorf("%w: pin is required", ErrInvalidRequest)
	}

	token, err := credential.IssueToken()
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	hash, err := s.hasher.HashSecret(pin, salt)
	if err != nil {
		return nil, fmt.Errorf("hashing pin: %w", err)
	}

	user := &User{
		Name:    name,
		Role:    role,
		Token:   token,
		PINHash: hash,
		PINSalt: salt,
		Status:  StatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user enrolled", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// UpdateUser applies a partial update. A new PIN is re-salted; the badge
// token is immutable and cannot be changed here.
func (s *Service) UpdateUser(ctx context.Context, id string, upd UpdateUser) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidRequest)
		}
		user.Name = name
	}
	if upd.Role != nil {
		user.Role = *upd.Role
	}

	if upd.Name != nil || upd.Role != nil {
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	if upd.NewPIN != nil {
		if *upd.NewPIN == "" {
			return nil, fmt.Errorf("%w: pin cannot be empty", ErrInvalidRequest)
		}
		salt, err := s.hasher.GenerateSalt()
		if err != nil {
			return nil, fmt.Errorf("generating salt: %w", err)
		}
		hash, err := s.hasher.HashSecret(*upd.NewPIN, salt)
		if err != nil {
			return nil, fmt.Errorf("hashing pin: %w", err)
		}
		if err := s.users.UpdateCredentials(ctx, id, hash, salt); err != nil {
			return nil, err
		}
		user.PINHash = hash
		user.PINSalt = salt
	}

	s.logger.Info("user updated", "user_id", id)
	return user, nil
}

// SetStatus activates or deactivates a collaborator.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) error {
	if err := s.users.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("user status changed", "user_id", id, "status", status)
	return nil
}

// DeleteUser hard-deletes a collaborator. Their ledger events remain as
// orphans, which is intentional: the audit trail outlives the directory.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", "user_id", id)
	return nil
}

// GetUser returns a single collaborator by ID.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers returns all collaborators.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// VerifyAdmin checks operator credentials. An unknown username reports false
// without error so callers cannot distinguish it from a wrong password.
func (s *Service) VerifyAdmin(ctx context.Context, username, password string) (bool, error) {
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.hasher.Verify(password, admin.PassSalt, admin.PassHash)
}

// Dashboard read-side pass-throughs. The ledger is the source of truth;
// the service just scopes access to it.

func (s *Service) CurrentlyInside(ctx context.Context) ([]ledger.InsideEntry, error) {
	return s.events.CurrentlyInside(ctx)
}

func (s *Service) TotalInside(ctx context.Context) (int, error) {
	return s.events.TotalInside(ctx)
}

func (s *Service) RecentEvents(ctx context.Context, limit int) ([]ledger.EventWithName, error) {
	return s.events.RecentEvents(ctx, limit)
}

func (s *Service) DailyCounts(ctx context.Context, days int) ([]ledger.DailyCount, error) {
	return s.events.DailyCounts(ctx, days)
}

func (s *Service) ExportAll(ctx context.Context, fn func(ledger.AccessEvent) error) error {
	return s.events.ExportAll(ctx, fn)
}
