package utils

import (
    "errors"
    "testing"
    "time"

    "golang.org/x/crypto/bcrypt"
)

func TestSessionTokenRoundTrip(t *testing.T) {
    tok, err := NewSessionToken("secret", 42, time.Hour)
    if err != nil {
        t.Fatalf("sign: %v", err)
    }
    uid, jti, err := ParseSessionToken("secret", tok.Token)
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if uid != 42 || jti != tok.ID {
        t.Fatalf("unexpected claims uid=%d jti=%q", uid, jti)
    }
    if _, _, err := ParseSessionToken("other", tok.Token); !errors.Is(err, ErrInvalidToken) {
        t.Fatalf("expected wrong secret to fail, got %v", err)
    }
}

func TestSessionTokenExpired(t *testing.T) {
    tok, err := NewSessionToken("secret", 1, -time.Minute)
    if err != nil {
        t.Fatalf("sign: %v", err)
    }
    if _, _, err := ParseSessionToken("secret", tok.Token); !errors.Is(err, ErrInvalidToken) {
        t.Fatalf("expected expired token to fail, got %v", err)
    }
}

func TestResetTokenNotAcceptedAsSession(t *testing.T) {
    tok, _, err := NewResetToken("secret", 7, "$2a$hash", time.Hour)
    if err != nil {
        t.Fatalf("sign: %v", err)
    }
    if _, _, err := ParseSessionToken("secret", tok); !errors.Is(err, ErrInvalidToken) {
        t.Fatalf("reset token must not parse as a session, got %v", err)
    }
    uid, ver, err := ParseResetToken("secret", tok)
    if err != nil {
        t.Fatalf("parse reset: %v", err)
    }
    if uid != 7 || ver != PasswordVersion("$2a$hash") {
        t.Fatalf("unexpected reset claims uid=%d ver=%q", uid, ver)
    }
}

func TestFederatedAssertion(t *testing.T) {
    a, err := NewFederatedAssertion("fed", FederatedClaims{Email: "ada@example.com", Name: "Ada"}, time.Minute)
    if err != nil {
        t.Fatalf("sign: %v", err)
    }
    c, err := ParseFederatedAssertion("fed", a)
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if c.Email != "ada@example.com" || c.Name != "Ada" {
        t.Fatalf("unexpected claims %+v", c)
    }
    empty, _ := NewFederatedAssertion("fed", FederatedClaims{}, time.Minute)
    if _, err := ParseFederatedAssertion("fed", empty); !errors.Is(err, ErrInvalidToken) {
        t.Fatalf("expected missing email to fail, got %v", err)
    }
}

func TestPassword(t *testing.T) {
    hash, err := HashPassword("Abcdef", bcrypt.MinCost)
    if err != nil {
        t.Fatalf("hash: %v", err)
    }
    if !VerifyPassword(hash, "Abcdef") || VerifyPassword(hash, "abcdef") {
        t.Fatal("password verification mismatch")
    }
    if VerifyPassword("", "") {
        t.Fatal("empty hash must never verify")
    }
}
