package token

import (
	"testing"
	"time"
)

func TestVerify_RoundTrip(t *testing.T) {
	secret := "test_secret"
	now := time.Unix(1700000000, 0)

	s, err := Issue(secret, "user-1", "client", 10*time.Minute, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := Verify(s, secret, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.UserID != "user-1" {
		t.Fatalf("user id mismatch: %q", got.UserID)
	}
	if got.Role != "client" {
		t.Fatalf("role mismatch: %q", got.Role)
	}
}

func TestVerify_Expired(t *testing.T) {
	secret := "test_secret"
	now := time.Unix(1700000000, 0)

	s, err := Issue(secret, "user-1", "worker", 10*time.Minute, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := Verify(s, secret, now.Add(11*time.Minute)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	now := time.Unix(1700000000, 0)

	s, err := Issue("secret_a", "user-1", "worker", 10*time.Minute, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := Verify(s, "secret_b", now); err == nil {
		t.Fatalf("expected signature error")
	}
}
