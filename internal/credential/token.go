package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// tokenRandomBytes is the random component mixed into each issued token.
const tokenRandomBytes = 8

// IssueToken creates an opaque badge token: a random component and a
// high-resolution timestamp, concatenated and pushed through SHA-256 so the
// result reveals nothing about the seed, the time, or issuing order.
//
// Collisions are astronomically unlikely but not structurally impossible;
// the UNIQUE constraint on the users table is the actual backstop.
func IssueToken() (string, error) {
	random := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(random); err != nil {
		return "", fmt.Errorf("generating token seed: %w", err)
	}

	base := fmt.Sprintf("%s|%d", hex.EncodeToString(random), time.Now().UnixNano())
	sum := sha256.Sum256([]byte(base))
	return hex.EncodeToString(sum[:]), nil
}
