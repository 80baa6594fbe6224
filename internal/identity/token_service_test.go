package identity

import (
	"strings"
	"testing"
	"time"

	"github.com/webwatch/platform/internal/config"
)

func testTokenService(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	cfg := &config.Config{}
	cfg.Auth.TokenTTL = ttl
	svc, err := NewTokenService(cfg)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	return svc
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testTokenService(t, time.Hour)

	raw, err := svc.CreateAccessToken("admin", 7)
	if err != nil {
		t.Fatalf("CreateAccessToken failed: %v", err)
	}
	if strings.Count(raw, ".") != 2 {
		t.Fatalf("token is not a compact JWS: %q", raw)
	}

	token, err := svc.Verify(raw)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if token.Subject() != "admin" {
		t.Errorf("subject = %q, want admin", token.Subject())
	}
	use, ok := token.Get("token:use")
	if !ok || use != "access_token" {
		t.Errorf("token:use = %v, want access_token", use)
	}
	id, ok := token.Get("user:id")
	if !ok {
		t.Error("user:id claim missing")
	}
	if idf, ok := id.(float64); ok && idf != 7 {
		t.Errorf("user:id = %v, want 7", id)
	}
}

func TestVerify_RejectsExpired(t *testing.T) {
	svc := testTokenService(t, -time.Minute)

	raw, err := svc.CreateAccessToken("admin", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Verify(raw); err == nil {
		t.Error("expired token passed verification")
	}
}

func TestVerify_RejectsForeignToken(t *testing.T) {
	issuer := testTokenService(t, time.Hour)
	other := testTokenService(t, time.Hour)

	raw, err := issuer.CreateAccessToken("admin", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Verify(raw); err == nil {
		t.Error("token signed by another key passed verification")
	}
}

func TestVerify_RejectsGarbage(t *testing.T) {
	svc := testTokenService(t, time.Hour)
	if _, err := svc.Verify("not-a-token"); err == nil {
		t.Error("garbage passed verification")
	}
}
