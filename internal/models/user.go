package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account on the identity service.
// Its ID is the principal id that wishlists reference in CreatedBy and SharedWith.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique).
	// Used for sign-in.
	Email string

	// DisplayName is the name shown to other users.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	// Never leaves the server.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last account change.
	UpdatedAt int64
}

// NewUser builds a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
