// internal/auth/refresh.go
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const refreshTokenBytes = 32

// newOpaqueRefreshToken returns a URL-safe random token and the hex SHA-256
// hash under which its session is stored. The plain token is only ever held
// by the client.
func newOpaqueRefreshToken() (plain string, hashHex string, err error) {
	b := make([]byte, refreshTokenBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", err
	}
	plain = base64.RawURLEncoding.EncodeToString(b)
	return plain, HashRefreshToken(plain), nil
}

// HashRefreshToken returns the deterministic fingerprint used as the
// session key (64 hex chars).
func HashRefreshToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
