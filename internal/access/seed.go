package access

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/gatewatch/gatewatch-core/internal/credential"
)

// seedPasswordBytes is the number of random bytes for the seed admin password.
const seedPasswordBytes = 16

// SeedAdmin creates the initial operator account on first boot if no admins
// exist. The generated password is logged and must be changed immediately.
// Returns the generated password (empty string if seeding was skipped).
func SeedAdmin(ctx context.Context, admins AdminRepository, hasher *credential.Hasher, logger *slog.Logger) (string, error) {
	count, err := admins.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking admin count: %w", err)
	}

	if count > 0 {
		logger.Info("admins exist, skipping seed")
		return "", nil
	}

	passwordBytes := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(passwordBytes); err != nil {
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	password := hex.EncodeToString(passwordBytes)

	salt, err := hasher.GenerateSalt()
	if err != nil {
		return "", fmt.Errorf("generating seed salt: %w", err)
	}
	hash, err := hasher.HashSecret(password, salt)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	admin := &Admin{
		Username: "admin",
		PassHash: hash,
		PassSalt: salt,
	}
	if err := admins.Create(ctx, admin); err != nil {
		return "", fmt.Errorf("creating seed admin: %w", err)
	}

	logger.Warn("seed admin account created",
		"username", "admin",
		"password", password,
		"action_required", "change this password immediately",
	)

	return password, nil
}
