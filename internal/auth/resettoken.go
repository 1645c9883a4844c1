package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ResetTokenLifetime is how long a password reset token stays valid.
const ResetTokenLifetime = 15 * time.Minute

// GenerateResetToken returns a fresh reset token, the SHA-256 hex digest to
// store, and the expiry timestamp. The plaintext token goes into the reset
// email; only the digest touches the database.
func GenerateResetToken() (token, digest string, expiresAt time.Time, err error) {
	buf := make([]byte, 20)
	if _, err = rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate reset token: %w", err)
	}

	token = hex.EncodeToString(buf)
	digest = HashToken(token)
	expiresAt = time.Now().UTC().Add(ResetTokenLifetime)
	return token, digest, expiresAt, nil
}

// HashToken returns the SHA-256 hex digest of the given token string.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
