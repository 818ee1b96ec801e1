package utils

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	InitJWT("utils-secret", time.Minute, time.Hour)

	token, err := GenerateAccessToken(42, "a@example.com", "manager")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "a@example.com" || claims.Role != "manager" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	InitJWT("other-secret", time.Minute, time.Hour)
	if _, err := ValidateAccessToken(token); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}
}

func TestExpiredAccessToken(t *testing.T) {
	InitJWT("utils-secret", -time.Minute, time.Hour)
	token, err := GenerateAccessToken(1, "a@example.com", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateAccessToken(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestRefreshTokenHash(t *testing.T) {
	a, b := GenerateRefreshToken(), GenerateRefreshToken()
	if a == b {
		t.Fatal("expected distinct refresh tokens")
	}
	if HashRefreshToken(a) != HashRefreshToken(a) || HashRefreshToken(a) == HashRefreshToken(b) {
		t.Fatal("expected stable distinct hashes")
	}
	if len(HashRefreshToken(a)) != 64 {
		t.Fatalf("expected sha256 hex got %d chars", len(HashRefreshToken(a)))
	}
}

func TestGenerateUserCode(t *testing.T) {
	for _, n := range []int{SignupUserCodeLength, AdminUserCodeLength} {
		code, err := GenerateUserCode(n)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != n {
			t.Fatalf("expected %d chars got %q", n, code)
		}
		for _, r := range code {
			if !strings.ContainsRune(userCodeAlphabet, r) {
				t.Fatalf("unexpected character %q in %q", r, code)
			}
		}
	}
}

func TestPasswordHash(t *testing.T) {
	BcryptCost = bcrypt.MinCost
	defer func() { BcryptCost = 12 }()

	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !ComparePassword(hash, "secret123") || ComparePassword(hash, "secret124") {
		t.Fatal("password comparison mismatch")
	}
	if _, err := HashPassword(strings.Repeat("x", 73)); err == nil {
		t.Fatal("expected error for password over 72 bytes")
	}
}
