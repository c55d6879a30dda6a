package principal

import (
	"strings"
	"testing"
)

func TestValidateClientDigest(t *testing.T) {
	valid := strings.Repeat("a", 64)
	if err := ValidateClientDigest(valid); err != nil {
		t.Errorf("ValidateClientDigest(valid) error = %v", err)
	}

	invalid := []string{"", "short", strings.Repeat("a", 63), strings.Repeat("z", 64)}
	for _, d := range invalid {
		if err := ValidateClientDigest(d); err == nil {
			t.Errorf("ValidateClientDigest(%q) expected error", d)
		}
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	digest := strings.Repeat("b", 64)
	hash, err := HashPassword(digest)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == digest {
		t.Fatal("expected hash to differ from the raw digest")
	}
	if !VerifyPassword(hash, digest) {
		t.Error("expected VerifyPassword to accept the matching digest")
	}
	if VerifyPassword(hash, strings.Repeat("c", 64)) {
		t.Error("expected VerifyPassword to reject a different digest")
	}
}
