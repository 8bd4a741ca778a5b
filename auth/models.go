// Package auth is responsible for the identity store and the authentication
// gate: account creation, credential checks, opaque token issuance, and the
// middleware that resolves tokens back into users.
package auth

import "time"

// User represents an account in the system. The password is only ever held
// as a bcrypt hash, and the json:"-" tag keeps even the hash out of API
// responses.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
}
