package domain

import "time"

// Account is an identity-provider credential record. Its ID is the uid that
// profiles are keyed by.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// PasswordReset is a single-use reset token.
type PasswordReset struct {
	ID        string
	AccountID string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
