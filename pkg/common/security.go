package common

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

const orderTokenBytes = 32

// NewOrderToken returns a random URL-safe token and the hex SHA-256 of it.
// Only the hash is meant to be stored.
func NewOrderToken() (token string, tokenHash string, err error) {
	buf := make([]byte, orderTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	token = base64.RawURLEncoding.EncodeToString(buf)
	return token, Sha256Hex(token), nil
}

func Sha256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// SafeEqualHex compares two hex digests in constant time.
func SafeEqualHex(a, b string) bool {
	if a == "" || b == "" || len(a) != len(b) {
		return false
	}
	ab, err := hex.DecodeString(a)
	if err != nil {
		return false
	}
	bb, err := hex.DecodeString(b)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(ab, bb) == 1
}

// SafeEqualString compares two secrets in constant time. Empty never matches.
func SafeEqualString(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ErrorID returns a short random correlation id for server-side logs.
func ErrorID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return Sha256Hex(NA)[:16]
	}
	return hex.EncodeToString(buf)
}
