package utils

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWTToken("user-42", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWTToken failed: %v", err)
	}
	id, err := UserIDFromToken(token)
	if err != nil {
		t.Fatalf("UserIDFromToken failed: %v", err)
	}
	if id != "user-42" {
		t.Errorf("got user id %q, want user-42", id)
	}
}

func TestExpiredToken(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWTToken("user-42", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWTToken failed: %v", err)
	}
	if _, err := ParseJWTToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestGarbageToken(t *testing.T) {
	SetJWTSecret("test-secret")

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ParseJWTToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ParseJWTToken(%q) = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestWrongSecretRejected(t *testing.T) {
	SetJWTSecret("first-secret")
	token, err := GenerateJWTToken("user-42", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWTToken failed: %v", err)
	}

	SetJWTSecret("second-secret")
	defer SetJWTSecret("first-secret")
	if _, err := ParseJWTToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token signed with another secret accepted: %v", err)
	}
}
