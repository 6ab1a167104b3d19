package security

import (
	"testing"
	"time"

	"github.com/rollcallhq/rollcall-go/internal/domain/officer"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatalf("hash should not equal the plaintext")
	}
	if !VerifyPassword("correct horse battery staple", hash) {
		t.Fatalf("correct password rejected")
	}
	if VerifyPassword("wrong password", hash) {
		t.Fatalf("wrong password accepted")
	}
}

func TestAuthTokenRoundTrip(t *testing.T) {
	o := &officer.Officer{
		ID:          "off-1",
		BadgeNumber: "4411",
		Role:        officer.RoleOfficer,
	}

	token, err := GenerateAuthToken(o, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateAuthToken failed: %v", err)
	}

	claims, err := AuthClaimsFromToken(token, "test-secret")
	if err != nil {
		t.Fatalf("AuthClaimsFromToken failed: %v", err)
	}
	if claims.OfficerID != "off-1" || claims.BadgeNumber != "4411" || claims.Role != officer.RoleOfficer {
		t.Fatalf("claims do not round trip: %+v", claims)
	}
	if !claims.ExpiresAt.After(time.Now()) {
		t.Fatalf("token should not be expired yet")
	}
}

func TestAuthTokenRejectsWrongSecret(t *testing.T) {
	o := &officer.Officer{ID: "off-1", BadgeNumber: "4411", Role: officer.RoleOfficer}

	token, err := GenerateAuthToken(o, "secret-a", time.Hour)
	if err != nil {
		t.Fatalf("GenerateAuthToken failed: %v", err)
	}
	if _, err := AuthClaimsFromToken(token, "secret-b"); err == nil {
		t.Fatalf("token signed with a different secret should be rejected")
	}
}

func TestAuthTokenRejectsExpired(t *testing.T) {
	o := &officer.Officer{ID: "off-1", BadgeNumber: "4411", Role: officer.RoleOfficer}

	token, err := GenerateAuthToken(o, "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAuthToken failed: %v", err)
	}
	if _, err := AuthClaimsFromToken(token, "test-secret"); err == nil {
		t.Fatalf("expired token should be rejected by the parser")
	}
}

func TestGenerateULIDIsSortableAndUnique(t *testing.T) {
	a := GenerateULID()
	b := GenerateULID()
	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("ULIDs should be 26 chars, got %q %q", a, b)
	}
	if a == b {
		t.Fatalf("consecutive ULIDs collided")
	}
}

func TestGenerateSecureToken(t *testing.T) {
	tok, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken failed: %v", err)
	}
	if len(tok) != 64 { // hex doubles the length
		t.Fatalf("expected 64 hex chars, got %d", len(tok))
	}
}
