package models

import "github.com/google/uuid"

type Moderator struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`

	// PasswordHash is the argon2id-encoded hash, never the raw password.
	PasswordHash string `json:"-"`
}
