package domain

import "time"

// AuditAction captures what a transition did.
type AuditAction string

const (
	ActionIssueCreated   AuditAction = "issue_created"
	ActionIssueVerified  AuditAction = "issue_verified"
	ActionIssueRejected  AuditAction = "issue_rejected"
	ActionWorkerAssigned AuditAction = "worker_assigned"
	ActionWorkStarted    AuditAction = "work_started"
	ActionWorkCompleted  AuditAction = "work_completed"
	ActionIssueResolved  AuditAction = "issue_resolved"
	ActionIssueEscalated AuditAction = "issue_escalated"
	ActionIssueClosed    AuditAction = "issue_closed"
	ActionFundRequested  AuditAction = "fund_requested"
	ActionFundApproved   AuditAction = "fund_approved"
	ActionFundRejected   AuditAction = "fund_rejected"
)

// AuditLogEntry is an immutable, append-only trail entry.
type AuditLogEntry struct {
	ID              string
	Action          AuditAction
	IssueID         *string
	FundRequestID   *string
	ByUID           string
	ByRole          Role
	Comment         string
	FromStatus      string
	ResultingStatus string
	Timestamp       time.Time
}
