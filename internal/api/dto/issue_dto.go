package dto

import (
	"time"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/escalation"
	"github.com/vital-portal/vital/internal/report"
	"github.com/vital-portal/vital/internal/service"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Category     string              `json:"category"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	LocationText string              `json:"location"`
	Jurisdiction JurisdictionPayload `json:"jurisdiction"`
	SLADays      int                 `json:"slaDays"`
}

// UpdateIssueRequest edits a still-submitted issue. Omitted fields are kept.
type UpdateIssueRequest struct {
	Category     *string `json:"category"`
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	LocationText *string `json:"location"`
}

// TransitionRequest moves an issue to Status.
type TransitionRequest struct {
	Status             domain.IssueStatus `json:"status"`
	Comment            string             `json:"comment"`
	Reason             string             `json:"reason"`
	WorkerID           string             `json:"workerId"`
	CompletionNote     string             `json:"completionNote"`
	CompletionPhotoURL string             `json:"completionPhotoUrl"`
	ResolutionNote     string             `json:"resolutionNote"`
}

// Input converts the request for the issue service.
func (r TransitionRequest) Input() service.TransitionInput {
	return service.TransitionInput{
		Comment:            r.Comment,
		Reason:             r.Reason,
		WorkerID:           r.WorkerID,
		CompletionNote:     r.CompletionNote,
		CompletionPhotoURL: r.CompletionPhotoURL,
		ResolutionNote:     r.ResolutionNote,
	}
}

// AssignedWorkerResponse is the worker snapshot on an issue.
type AssignedWorkerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

// CompletionLogResponse is one completion report.
type CompletionLogResponse struct {
	Note     string      `json:"note,omitempty"`
	PhotoURL string      `json:"photoUrl,omitempty"`
	ByUID    string      `json:"byUid"`
	ByRole   domain.Role `json:"byRole"`
	At       time.Time   `json:"at"`
}

// IssueResponse is the full issue document.
type IssueResponse struct {
	ID                 string                  `json:"id"`
	Status             domain.IssueStatus      `json:"status"`
	Category           string                  `json:"category"`
	Title              string                  `json:"title"`
	Description        string                  `json:"description"`
	LocationText       string                  `json:"location,omitempty"`
	Jurisdiction       JurisdictionResponse    `json:"jurisdiction"`
	ReporterID         string                  `json:"reporterId"`
	AssignedWorker     *AssignedWorkerResponse `json:"assignedWorker,omitempty"`
	Escalated          bool                    `json:"escalated"`
	EscalationLevel    *domain.EscalationLevel `json:"escalationLevel,omitempty"`
	EscalationReason   *string                 `json:"escalationReason,omitempty"`
	SLADays            int                     `json:"slaDays"`
	CompletionPhotoURL *string                 `json:"completionPhotoUrl,omitempty"`
	CompletionLogs     []CompletionLogResponse `json:"completionLogs,omitempty"`
	ResolutionNote     *string                 `json:"resolutionNote,omitempty"`
	RejectionReason    *string                 `json:"rejectionReason,omitempty"`
	CreatedAt          time.Time               `json:"createdAt"`
	UpdatedAt          time.Time               `json:"updatedAt"`
	VerifiedAt         *time.Time              `json:"verifiedAt,omitempty"`
	AssignedAt         *time.Time              `json:"assignedAt,omitempty"`
	CompletedAt        *time.Time              `json:"completedAt,omitempty"`
	ResolvedAt         *time.Time              `json:"resolvedAt,omitempty"`
	EscalatedAt        *time.Time              `json:"escalatedAt,omitempty"`
	ClosedAt           *time.Time              `json:"closedAt,omitempty"`
}

// TransitionResponse wraps a changed issue and any audit warning.
type TransitionResponse struct {
	Issue        *IssueResponse       `json:"issue,omitempty"`
	FundRequest  *FundRequestResponse `json:"fundRequest,omitempty"`
	AuditWarning string               `json:"auditWarning,omitempty"`
}

// AuditEntryResponse is one audit trail line.
type AuditEntryResponse struct {
	ID              string             `json:"id"`
	Action          domain.AuditAction `json:"action"`
	IssueID         *string            `json:"issueId,omitempty"`
	FundRequestID   *string            `json:"fundRequestId,omitempty"`
	ByUID           string             `json:"byUid"`
	ByRole          domain.Role        `json:"byRole"`
	Comment         string             `json:"comment,omitempty"`
	FromStatus      string             `json:"fromStatus,omitempty"`
	ResultingStatus string             `json:"resultingStatus"`
	Timestamp       time.Time          `json:"timestamp"`
}

// QueueItemResponse is an escalation queue row.
type QueueItemResponse struct {
	Issue       IssueResponse       `json:"issue"`
	Priority    escalation.Priority `json:"priority"`
	DaysPending int                 `json:"daysPending"`
	Overdue     bool                `json:"overdue"`
}

// DashboardResponse is a role dashboard.
type DashboardResponse struct {
	Role       domain.Role                `json:"role"`
	Summary    report.Summary             `json:"summary"`
	ByStatus   map[domain.IssueStatus]int `json:"byStatus"`
	Queue      []QueueItemResponse        `json:"queue"`
	Panchayats []report.PanchayatStats    `json:"panchayats"`
	Monthly    []report.MonthStats        `json:"monthly"`
	Recent     []IssueResponse            `json:"recent"`
}

// NewIssueResponse maps an issue.
func NewIssueResponse(issue *domain.Issue) IssueResponse {
	resp := IssueResponse{
		ID:                 issue.ID,
		Status:             issue.Status,
		Category:           issue.Category,
		Title:              issue.Title,
		Description:        issue.Description,
		LocationText:       issue.LocationText,
		Jurisdiction:       NewJurisdictionResponse(issue.Jurisdiction),
		ReporterID:         issue.ReporterID,
		Escalated:          issue.Escalated,
		EscalationLevel:    issue.EscalationLevel,
		EscalationReason:   issue.EscalationReason,
		SLADays:            issue.EffectiveSLADays(),
		CompletionPhotoURL: issue.CompletionPhotoURL,
		ResolutionNote:     issue.ResolutionNote,
		RejectionReason:    issue.RejectionReason,
		CreatedAt:          issue.CreatedAt,
		UpdatedAt:          issue.UpdatedAt,
		VerifiedAt:         issue.VerifiedAt,
		AssignedAt:         issue.AssignedAt,
		CompletedAt:        issue.CompletedAt,
		ResolvedAt:         issue.ResolvedAt,
		EscalatedAt:        issue.EscalatedAt,
		ClosedAt:           issue.ClosedAt,
	}
	if w := issue.AssignedWorker; w != nil {
		resp.AssignedWorker = &AssignedWorkerResponse{ID: w.ID, Name: w.Name, Phone: w.Phone, Role: w.Role}
	}
	for _, log := range issue.CompletionLogs {
		resp.CompletionLogs = append(resp.CompletionLogs, CompletionLogResponse{
			Note:     log.Note,
			PhotoURL: log.PhotoURL,
			ByUID:    log.ByUID,
			ByRole:   log.ByRole,
			At:       log.At,
		})
	}
	return resp
}

// NewIssueList maps a page of issues.
func NewIssueList(issues []*domain.Issue) []IssueResponse {
	items := make([]IssueResponse, 0, len(issues))
	for _, issue := range issues {
		items = append(items, NewIssueResponse(issue))
	}
	return items
}

// NewTransitionResponse maps a service transition result.
func NewTransitionResponse(result *service.TransitionResult) TransitionResponse {
	resp := TransitionResponse{AuditWarning: result.AuditWarning}
	if result.Issue != nil {
		issue := NewIssueResponse(result.Issue)
		resp.Issue = &issue
	}
	if result.FundRequest != nil {
		req := NewFundRequestResponse(result.FundRequest)
		resp.FundRequest = &req
	}
	return resp
}

// NewAuditTrail maps audit entries.
func NewAuditTrail(entries []domain.AuditLogEntry) []AuditEntryResponse {
	items := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, AuditEntryResponse{
			ID:              e.ID,
			Action:          e.Action,
			IssueID:         e.IssueID,
			FundRequestID:   e.FundRequestID,
			ByUID:           e.ByUID,
			ByRole:          e.ByRole,
			Comment:         e.Comment,
			FromStatus:      e.FromStatus,
			ResultingStatus: e.ResultingStatus,
			Timestamp:       e.Timestamp,
		})
	}
	return items
}

// NewQueue maps escalation queue items.
func NewQueue(items []escalation.QueueItem) []QueueItemResponse {
	out := make([]QueueItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, QueueItemResponse{
			Issue:       NewIssueResponse(item.Issue),
			Priority:    item.Priority,
			DaysPending: item.DaysPending,
			Overdue:     item.Overdue,
		})
	}
	return out
}

// NewDashboardResponse maps a dashboard.
func NewDashboardResponse(d *service.Dashboard) DashboardResponse {
	return DashboardResponse{
		Role:       d.Role,
		Summary:    d.Summary,
		ByStatus:   d.ByStatus,
		Queue:      NewQueue(d.Queue),
		Panchayats: d.Panchayats,
		Monthly:    d.Monthly,
		Recent:     NewIssueList(d.Recent),
	}
}
