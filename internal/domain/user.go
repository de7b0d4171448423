package domain

import "time"

// User represents an account in the credential store. Password material is
// kept as hex-encoded scrypt salt and hash, never the plaintext.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordSalt string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
