package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// The session-lock token is a bearer capability for one exam tab. The raw
// token travels to the client once, on entry; only its SHA-256 digest is
// stored, so a database read never yields a usable token.

// MintLockToken generates a fresh session-lock token.
func MintLockToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("mint lock token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashLockToken returns the hex SHA-256 digest of a raw token.
func HashLockToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// VerifyLockToken reports whether the presented raw token matches the stored
// digest. The comparison is constant-time.
func VerifyLockToken(storedHash, raw string) bool {
	if storedHash == "" || raw == "" {
		return false
	}
	presented := HashLockToken(raw)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(presented)) == 1
}
