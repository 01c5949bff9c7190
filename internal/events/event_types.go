package events

import (
	"time"

	"github.com/vital-portal/vital/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated       EventType = "issue_created"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventFundRequestCreated EventType = "fund_request_created"
	EventFundRequestDecided EventType = "fund_request_decided"
	EventAuthorityVerified  EventType = "authority_verified"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UID  string      `json:"uid"`
	Role domain.Role `json:"role"`
}

// ActorFrom copies the acting principal onto an event.
func ActorFrom(p domain.Principal) Actor {
	return Actor{UID: p.UID, Role: p.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	IssueID       string      `json:"issue_id,omitempty"`
	FundRequestID string      `json:"fund_request_id,omitempty"`
	Actor         Actor       `json:"actor"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	PanchayatID string `json:"panchayat_id"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
	Action    domain.AuditAction `json:"action"`
	Comment   string             `json:"comment,omitempty"`
}

// FundRequestCreatedPayload payload.
type FundRequestCreatedPayload struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
	Taluk  string  `json:"taluk"`
}

// FundRequestDecidedPayload payload.
type FundRequestDecidedPayload struct {
	Status         domain.FundRequestStatus `json:"status"`
	ApprovedAmount *float64                 `json:"approved_amount,omitempty"`
	Comment        string                   `json:"comment,omitempty"`
}

// AuthorityVerifiedPayload payload.
type AuthorityVerifiedPayload struct {
	UID    string                    `json:"uid"`
	Status domain.VerificationStatus `json:"status"`
	Reason string                    `json:"reason,omitempty"`
}
