package util

import (
	"crypto/sha256"
	"encoding/hex"
)

const userKeyNamespace = "letter-backend/user:"

// HashUserKey maps a user ID to the directory name used in object storage,
// so archived letters are not listed under raw account identifiers.
func HashUserKey(userID string) string {
	sum := sha256.Sum256([]byte(userKeyNamespace + userID))
	return hex.EncodeToString(sum[:])
}

// ContentHash returns the hex SHA-256 of parts written in order.
func ContentHash(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
