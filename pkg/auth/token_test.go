package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret: "secret",
		Issuer: "storefront",
		TTL:    30 * time.Minute,
	}
}

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := testSessionConfig()
	now := time.Now().UTC()
	sessionID := NewSessionID()

	token, err := MintSessionToken(cfg, now, sessionID)
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}

	if claims.SessionID != sessionID {
		t.Fatalf("expected sid %s, got %s", sessionID, claims.SessionID)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(cfg.TTL)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v", exp, claims.ExpiresAt.UTC())
	}
}

func TestParseSessionTokenInvalidSignature(t *testing.T) {
	cfg := testSessionConfig()
	token, err := MintSessionToken(cfg, time.Now(), NewSessionID())
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	if _, err := ParseSessionToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}

	other := cfg
	other.Secret = "another"
	if _, err := ParseSessionToken(other, token); err == nil {
		t.Fatal("expected secret mismatch error")
	}
}

func TestParseSessionTokenExpired(t *testing.T) {
	cfg := testSessionConfig()
	token, err := MintSessionToken(cfg, time.Now().Add(-time.Hour), NewSessionID())
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	_, err = ParseSessionToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseSessionTokenWrongIssuer(t *testing.T) {
	cfg := testSessionConfig()
	token, err := MintSessionToken(cfg, time.Now(), NewSessionID())
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}
	other := cfg
	other.Issuer = "elsewhere"
	if _, err := ParseSessionToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestMintSessionTokenRequiresSessionID(t *testing.T) {
	if _, err := MintSessionToken(testSessionConfig(), time.Now(), "  "); err == nil {
		t.Fatal("expected missing session id error")
	}
	cfg := testSessionConfig()
	cfg.TTL = 0
	if _, err := MintSessionToken(cfg, time.Now(), NewSessionID()); err == nil {
		t.Fatal("expected ttl error")
	}
}
