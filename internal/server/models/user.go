package models

import "time"

// User is the stored credential record. UserName is unique across the store;
// PasswordHash is an argon2id encoding and never the plaintext.
type User struct {
	ID           string
	UserName     string
	Email        string
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
	LastSeen     *time.Time
	Active       bool
}
