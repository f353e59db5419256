package security

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("hash must not equal the password")
	}

	if !VerifyPassword("correct horse battery", hash) {
		t.Error("expected matching password to verify")
	}
	if VerifyPassword("wrong password", hash) {
		t.Error("expected non-matching password to fail")
	}
}

func TestHashPasswordTooShort(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Error("expected error for short password")
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	h1, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	h2, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ")
	}
}

func TestVerifyPasswordGarbageHash(t *testing.T) {
	if VerifyPassword("anything", "not-a-bcrypt-hash") {
		t.Error("garbage hash must not verify")
	}
}

func TestGenerateToken(t *testing.T) {
	token, hash, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if len(token) != 48 {
		t.Errorf("token length: got %d, want 48 hex chars", len(token))
	}
	if strings.Contains(hash, token) {
		t.Error("hash must not contain the plain token")
	}
	if HashToken(token) != hash {
		t.Error("HashToken must reproduce the stored hash")
	}

	token2, _, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == token2 {
		t.Error("tokens must be unique")
	}
}
