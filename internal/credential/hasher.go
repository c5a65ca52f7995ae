// Package credential provides the security primitives for GateWatch:
// salted PIN/password hashing and opaque badge-token issuing.
//
// Hashing uses PBKDF2-HMAC-SHA256 with a per-credential random salt and a
// configurable iteration count. Salt and digest are hex-encoded for storage
// in separate columns, so the work factor can be raised without a data
// migration (new hashes simply use the new count).
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// KDF parameters.
const (
	// DefaultIterations is the PBKDF2 work factor used when no override
	// is configured. A tunable defence parameter, not part of the contract.
	DefaultIterations = 150_000

	// saltBytes is the length of a freshly generated salt.
	saltBytes = 16

	// keyBytes is the derived key length.
	keyBytes = 32
)

// ErrInvalidInput is returned for an empty secret or a malformed salt.
var ErrInvalidInput = errors.New("credential: invalid input")

// Hasher derives and verifies salted credential hashes.
// The zero value is not usable; construct with NewHasher.
type Hasher struct {
	iterations int
}

// NewHasher creates a Hasher with the given PBKDF2 iteration count.
// A non-positive count falls back to DefaultIterations.
func NewHasher(iterations int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// GenerateSalt returns a fresh cryptographically random salt, hex-encoded.
func (h *Hasher) GenerateSalt() (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return hex.EncodeToString(salt), nil
}

// HashSecret derives a hex-encoded digest from a secret and a hex-encoded salt.
// The same (secret, salt) pair always produces the same digest.
func (h *Hasher) HashSecret(secret, salt string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: secret is empty", ErrInvalidInput)
	}

	saltRaw, err := hex.DecodeString(salt)
	if err != nil || len(saltRaw) == 0 {
		return "", fmt.Errorf("%w: malformed salt", ErrInvalidInput)
	}

	dk := pbkdf2.Key([]byte(secret), saltRaw, h.iterations, keyBytes, sha256.New)
	return hex.EncodeToString(dk), nil
}

// Verify recomputes the digest for (secret, salt) and compares it against
// expected in constant time. A malformed expected hash verifies as false
// rather than erroring, so a corrupted stored credential denies cleanly.
func (h *Hasher) Verify(secret, salt, expected string) (bool, error) {
	computed, err := h.HashSecret(secret, salt)
	if err != nil {
		return false, err
	}

	expectedRaw, err := hex.DecodeString(expected)
	if err != nil {
		return false, nil
	}

	computedRaw, _ := hex.DecodeString(computed) //nolint:errcheck // own hex output
	return subtle.ConstantTimeCompare(computedRaw, expectedRaw) == 1, nil
}
