package principal

import (
	"testing"
	"time"

	"github.com/sorriso/simplehybridchat/internal/model"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("s3cr3t", time.Hour)

	token, err := issuer.Issue("user-1", model.RoleManager)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-1")
	}
	if claims.Role != model.RoleManager {
		t.Errorf("Role = %q, want %q", claims.Role, model.RoleManager)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("s3cr3t", -time.Hour)
	token, err := issuer.Issue("user-1", model.RoleUser)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := issuer.Verify(token); err == nil {
		t.Fatal("expected Verify to reject an expired token")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", time.Hour).Issue("user-1", model.RoleUser)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := NewTokenIssuer("secret-b", time.Hour).Verify(token); err == nil {
		t.Fatal("expected Verify to reject a token signed with a different secret")
	}
}
