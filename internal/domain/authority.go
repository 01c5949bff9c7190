package domain

import "time"

// VerificationStatus tracks admin review of an authority registration.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// AuthorityProfile models a government officer account.
type AuthorityProfile struct {
	UID                string
	Name               string
	Email              string
	Phone              string
	Role               Role
	Jurisdiction       Jurisdiction
	VerificationStatus VerificationStatus
	VerificationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
