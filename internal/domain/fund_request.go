package domain

import "time"

// FundRequestStatus enumerates the approval states.
type FundRequestStatus string

const (
	FundRequestPending  FundRequestStatus = "pending"
	FundRequestApproved FundRequestStatus = "approved"
	FundRequestRejected FundRequestStatus = "rejected"
)

// FundDecision is the outcome a TDO chooses.
type FundDecision string

const (
	FundDecisionApprove FundDecision = "approved"
	FundDecisionReject  FundDecision = "rejected"
)

// DefaultRejectionReason is stored when a TDO rejects without a comment.
const DefaultRejectionReason = "No reason provided"

// FundRequest asks the taluk office for money, optionally tied to an issue.
type FundRequest struct {
	ID              string
	IssueID         *string
	Amount          float64
	ApprovedAmount  *float64
	Reason          string
	Description     string
	Jurisdiction    Jurisdiction
	Status          FundRequestStatus
	RequestedBy     string
	RequestedByRole Role
	DecidedBy       *string
	TDOComment      *string
	RejectionReason *string
	CreatedAt       time.Time
	DecidedAt       *time.Time
}

// Clone returns a deep copy.
func (f *FundRequest) Clone() *FundRequest {
	if f == nil {
		return nil
	}
	cp := *f
	cp.IssueID = clonePtr(f.IssueID)
	cp.ApprovedAmount = clonePtr(f.ApprovedAmount)
	cp.DecidedBy = clonePtr(f.DecidedBy)
	cp.TDOComment = clonePtr(f.TDOComment)
	cp.RejectionReason = clonePtr(f.RejectionReason)
	cp.DecidedAt = clonePtr(f.DecidedAt)
	return &cp
}
