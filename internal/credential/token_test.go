package credential

import (
	"encoding/hex"
	"testing"
)

func TestIssueToken_Shape(t *testing.T) {
	token, err := IssueToken()
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if len(token) != 64 {
		t.Errorf("token length = %d, want 64 (hex SHA-256)", len(token))
	}
	if _, err := hex.DecodeString(token); err != nil {
		t.Errorf("token should be hex-encoded: %v", err)
	}
}

func TestIssueToken_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := IssueToken()
		if err != nil {
			t.Fatalf("IssueToken() error = %v", err)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token issued: %s", token)
		}
		seen[token] = struct{}{}
	}
}
