// internal/auth/password.go
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ArgonParams tunes argon2id hashing.
type ArgonParams struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

func defaultArgonParams() ArgonParams {
	return ArgonParams{
		Memory:  64 * 1024, // 64 MiB
		Time:    1,
		Threads: 4,
		SaltLen: 16,
		// 32-byte key is standard
		KeyLen: 32,
	}
}

// HashPassword returns a PHC string: $argon2id$v=19$m=...,t=...,p=...$salt$hash
func HashPassword(pw string, p ArgonParams) (string, error) {
	if strings.TrimSpace(pw) == "" {
		return "", fmt.Errorf("empty password")
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(pw), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return phcEncode(p, salt, key), nil
}

// VerifyPassword checks a plaintext password against a PHC-encoded argon2id hash.
func VerifyPassword(pw, phc string) bool {
	mem, timeCost, threads, salt, want, ok := phcParse(phc)
	if !ok {
		return false
	}
	got := argon2.IDKey([]byte(pw), salt, timeCost, mem, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// phcEncode builds the PHC string for argon2id.
func phcEncode(p ArgonParams, salt, key []byte) string {
	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// phcParse extracts parameters, salt, and key from a PHC string.
// Returns (memoryKiB, time, threads, salt, key, ok).
func phcParse(phc string) (uint32, uint32, uint8, []byte, []byte, bool) {
	parts := strings.Split(phc, "$")
	// ["", "argon2id", "v=19", "m=...,t=...,p=...", "<saltB64>", "<keyB64>"]
	if len(parts) != 6 || parts[1] != "argon2id" || !strings.HasPrefix(parts[2], "v=") {
		return 0, 0, 0, nil, nil, false
	}
	var m, t, p int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return 0, 0, 0, nil, nil, false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, false
	}
	return uint32(m), uint32(t), uint8(p), salt, key, true
}
