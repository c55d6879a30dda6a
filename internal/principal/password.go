package principal

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/sorriso/simplehybridchat/internal/apperr"
)

var clientDigestPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// ValidateClientDigest checks that password_hash_client is a
// well-formed 64-hex-character SHA-256 digest, per spec.md §4.4.
func ValidateClientDigest(digest string) error {
	if !clientDigestPattern.MatchString(digest) {
		return apperr.New(apperr.BadRequest, "password_hash_client must be a 64-hex-character SHA-256 digest")
	}
	return nil
}

// HashPassword stores a salted adaptive hash of the client-sent
// digest — the "hash-of-hash" construction of spec.md §3.
func HashPassword(clientDigest string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(clientDigest), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "hash password", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a client-sent digest against the stored hash.
func VerifyPassword(storedHash, clientDigest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(clientDigest)) == nil
}
