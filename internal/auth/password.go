package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters; key length and cost follow the deployed hashes, so they
// must not change without a migration.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltBytes    = 16
)

// HashPassword derives a fresh salted hash for the password. Salt and hash
// are hex encoded for storage.
func HashPassword(password string) (salt, hash string, err error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	salt = hex.EncodeToString(raw)
	hash, err = hashWithSalt(password, salt)
	if err != nil {
		return "", "", err
	}
	return salt, hash, nil
}

func hashWithSalt(password, salt string) (string, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("derive key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// VerifyPassword recomputes the hash with the stored salt and compares in
// constant time. Any derivation failure counts as a mismatch.
func VerifyPassword(password, salt, hash string) bool {
	candidate, err := hashWithSalt(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1
}
