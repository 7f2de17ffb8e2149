package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AdminKeyPrefix marks back-office keys so they are recognisable in config and logs.
const AdminKeyPrefix = "qak_"

const adminKeyBytes = 32

// NewAdminAPIKey returns a fresh X-Admin-Key value and the bcrypt hash to configure
// as ADMIN_API_KEY_HASH. Only the hash is stored server side.
func NewAdminAPIKey() (key, hash string, err error) {
	b := make([]byte, adminKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	key = AdminKeyPrefix + hex.EncodeToString(b)
	hash, err = HashAPIKey(key)
	if err != nil {
		return "", "", fmt.Errorf("hash admin key: %w", err)
	}
	return key, hash, nil
}

// HashAPIKey hashes a plaintext API key using bcrypt.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckAPIKeyHash compares a plaintext API key with a bcrypt hash.
func CheckAPIKeyHash(key, hash string) bool {
	if key == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
