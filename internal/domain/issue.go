package domain

import "time"

// IssueStatus enumerates lifecycle states for civic issues.
type IssueStatus string

const (
	IssueStatusSubmitted     IssueStatus = "submitted"
	IssueStatusVIVerified    IssueStatus = "vi_verified"
	IssueStatusPDOAssigned   IssueStatus = "pdo_assigned"
	IssueStatusInProgress    IssueStatus = "in_progress"
	IssueStatusResolved      IssueStatus = "resolved"
	IssueStatusCompletedByVI IssueStatus = "completed_by_vi"
	IssueStatusEscalatedTDO  IssueStatus = "escalated_tdo"
	IssueStatusEscalatedDDO  IssueStatus = "escalated_ddo"
	IssueStatusRejected      IssueStatus = "rejected"
	IssueStatusClosed        IssueStatus = "closed"
)

// AllIssueStatuses lists every status in lifecycle order.
var AllIssueStatuses = []IssueStatus{
	IssueStatusSubmitted,
	IssueStatusVIVerified,
	IssueStatusPDOAssigned,
	IssueStatusInProgress,
	IssueStatusCompletedByVI,
	IssueStatusEscalatedTDO,
	IssueStatusEscalatedDDO,
	IssueStatusResolved,
	IssueStatusRejected,
	IssueStatusClosed,
}

// Valid reports whether s is a known status.
func (s IssueStatus) Valid() bool {
	for _, known := range AllIssueStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsResolved is true once the issue has been fixed, closed or not.
func (s IssueStatus) IsResolved() bool {
	return s == IssueStatusResolved || s == IssueStatusClosed
}

// IsTerminal is true for statuses no authority acts on anymore.
func (s IssueStatus) IsTerminal() bool {
	return s.IsResolved() || s == IssueStatusRejected
}

// IsEscalated is true for the escalation branch statuses.
func (s IssueStatus) IsEscalated() bool {
	return s == IssueStatusEscalatedTDO || s == IssueStatusEscalatedDDO
}

// EscalationLevel mirrors the authority an issue has been escalated to.
type EscalationLevel string

const (
	EscalationLevelTDO EscalationLevel = "tdo"
	EscalationLevelDDO EscalationLevel = "ddo"
)

// DefaultSLADays applies when an issue carries no SLA.
const DefaultSLADays = 3

// AssignedWorker is the field worker handling an issue.
type AssignedWorker struct {
	ID    string
	Name  string
	Phone string
	Role  string
}

// CompletionLog records one completion report against an issue.
type CompletionLog struct {
	Note     string
	PhotoURL string
	ByUID    string
	ByRole   Role
	At       time.Time
}

// Issue is the aggregate for a reported civic problem.
type Issue struct {
	ID           string
	Status       IssueStatus
	Category     string
	Title        string
	Description  string
	LocationText string
	Jurisdiction Jurisdiction
	ReporterID   string

	AssignedWorker   *AssignedWorker
	Escalated        bool
	EscalationLevel  *EscalationLevel
	EscalationReason *string

	SLADays            int
	CompletionPhotoURL *string
	CompletionLogs     []CompletionLog
	ResolutionNote     *string
	RejectionReason    *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	VerifiedAt  *time.Time
	AssignedAt  *time.Time
	CompletedAt *time.Time
	ResolvedAt  *time.Time
	EscalatedAt *time.Time
	ClosedAt    *time.Time
}

// EffectiveSLADays returns the SLA, defaulting when unset.
func (i *Issue) EffectiveSLADays() int {
	if i.SLADays <= 0 {
		return DefaultSLADays
	}
	return i.SLADays
}

// Clone returns a deep copy so transitions never mutate the caller's snapshot.
func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	cp := *i
	if i.AssignedWorker != nil {
		w := *i.AssignedWorker
		cp.AssignedWorker = &w
	}
	cp.EscalationLevel = clonePtr(i.EscalationLevel)
	cp.EscalationReason = clonePtr(i.EscalationReason)
	cp.CompletionPhotoURL = clonePtr(i.CompletionPhotoURL)
	cp.ResolutionNote = clonePtr(i.ResolutionNote)
	cp.RejectionReason = clonePtr(i.RejectionReason)
	cp.VerifiedAt = clonePtr(i.VerifiedAt)
	cp.AssignedAt = clonePtr(i.AssignedAt)
	cp.CompletedAt = clonePtr(i.CompletedAt)
	cp.ResolvedAt = clonePtr(i.ResolvedAt)
	cp.EscalatedAt = clonePtr(i.EscalatedAt)
	cp.ClosedAt = clonePtr(i.ClosedAt)
	if i.CompletionLogs != nil {
		cp.CompletionLogs = append([]CompletionLog(nil), i.CompletionLogs...)
	}
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
