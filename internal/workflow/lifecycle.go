// Package workflow holds the issue lifecycle state machine and the fund request
// decision rules. Everything here is pure: callers load the entity, apply a
// transition with an explicit actor and clock reading, then persist the result.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/escalation"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

// Payload carries role-specific inputs for a transition.
type Payload struct {
	Comment            string
	Reason             string
	Worker             *domain.Worker
	CompletionNote     string
	CompletionPhotoURL string
	ResolutionNote     string
}

type rule struct {
	action domain.AuditAction
	roles  []domain.Role
}

var authorityChain = []domain.Role{domain.RoleVillageIncharge, domain.RolePDO, domain.RoleTDO, domain.RoleDDO}

var allowedTransitions = map[domain.IssueStatus]map[domain.IssueStatus]rule{
	domain.IssueStatusSubmitted: {
		domain.IssueStatusVIVerified: {domain.ActionIssueVerified, []domain.Role{domain.RoleVillageIncharge}},
		domain.IssueStatusRejected:   {domain.ActionIssueRejected, []domain.Role{domain.RoleVillageIncharge}},
	},
	domain.IssueStatusVIVerified: {
		domain.IssueStatusPDOAssigned:  {domain.ActionWorkerAssigned, []domain.Role{domain.RolePDO}},
		domain.IssueStatusInProgress:   {domain.ActionWorkerAssigned, []domain.Role{domain.RolePDO}},
		domain.IssueStatusEscalatedTDO: {domain.ActionIssueEscalated, authorityChain},
	},
	domain.IssueStatusPDOAssigned: {
		domain.IssueStatusInProgress: {domain.ActionWorkStarted, []domain.Role{domain.RolePDO, domain.RoleVillageIncharge}},
	},
	domain.IssueStatusInProgress: {
		domain.IssueStatusResolved:      {domain.ActionIssueResolved, []domain.Role{domain.RolePDO, domain.RoleVillageIncharge}},
		domain.IssueStatusCompletedByVI: {domain.ActionWorkCompleted, []domain.Role{domain.RoleVillageIncharge}},
		domain.IssueStatusEscalatedTDO:  {domain.ActionIssueEscalated, authorityChain},
	},
	domain.IssueStatusCompletedByVI: {
		domain.IssueStatusResolved: {domain.ActionIssueResolved, []domain.Role{domain.RolePDO}},
	},
	domain.IssueStatusEscalatedTDO: {
		domain.IssueStatusEscalatedDDO: {domain.ActionIssueEscalated, []domain.Role{domain.RoleTDO}},
		domain.IssueStatusResolved:     {domain.ActionIssueResolved, []domain.Role{domain.RoleTDO}},
	},
	domain.IssueStatusEscalatedDDO: {
		domain.IssueStatusResolved: {domain.ActionIssueResolved, []domain.Role{domain.RoleDDO}},
	},
	domain.IssueStatusResolved: {
		domain.IssueStatusClosed: {domain.ActionIssueClosed, []domain.Role{domain.RoleAdmin, domain.RoleSystem}},
	},
	domain.IssueStatusRejected: {},
	domain.IssueStatusClosed:   {},
}

// IsValidTransition reports whether from -> to is an edge of the lifecycle graph.
func IsValidTransition(from, to domain.IssueStatus) bool {
	_, ok := allowedTransitions[from][to]
	return ok
}

// AllowedTargets lists the statuses role may move an issue to from its current status.
func AllowedTargets(from domain.IssueStatus, role domain.Role) []domain.IssueStatus {
	var targets []domain.IssueStatus
	for _, to := range domain.AllIssueStatuses {
		r, ok := allowedTransitions[from][to]
		if ok && hasRole(r.roles, role) {
			targets = append(targets, to)
		}
	}
	return targets
}

// Apply validates and performs a transition on a copy of issue. It returns the
// updated copy and the audit entry describing it; the input is never modified.
func Apply(issue *domain.Issue, to domain.IssueStatus, actor domain.Principal, payload Payload, now time.Time) (*domain.Issue, domain.AuditLogEntry, error) {
	if issue == nil {
		return nil, domain.AuditLogEntry{}, apperrors.NewNotFound("issue", nil)
	}
	if err := admit(issue, actor); err != nil {
		return nil, domain.AuditLogEntry{}, err
	}
	from := issue.Status
	r, ok := allowedTransitions[from][to]
	if !ok {
		return nil, domain.AuditLogEntry{}, apperrors.NewInvalidTransition(string(from), string(to))
	}
	if !hasRole(r.roles, actor.Role) {
		return nil, domain.AuditLogEntry{}, apperrors.NewNotAuthorized("role may not perform this transition", map[string]any{
			"role":   actor.Role,
			"status": issue.Status,
		})
	}

	next := issue.Clone()
	comment, err := applyEffects(next, to, actor, payload, now)
	if err != nil {
		return nil, domain.AuditLogEntry{}, err
	}
	next.Status = to
	next.UpdatedAt = now

	issueID := next.ID
	entry := domain.AuditLogEntry{
		Action:          r.action,
		IssueID:         &issueID,
		ByUID:           actor.UID,
		ByRole:          actor.Role,
		Comment:         comment,
		FromStatus:      string(from),
		ResultingStatus: string(to),
		Timestamp:       now,
	}
	return next, entry, nil
}

// admit gates actor on verification and jurisdiction. It runs before any
// check that depends on the issue's status.
func admit(issue *domain.Issue, actor domain.Principal) error {
	if actor.Role.IsAuthority() && !actor.Verified {
		return apperrors.NewUnverified(string(domain.VerificationPending), "")
	}
	if !actor.CanAccess(issue.Jurisdiction) {
		return apperrors.NewNotAuthorized("issue outside jurisdiction", map[string]any{
			"issue_id": issue.ID,
		})
	}
	return nil
}

func applyEffects(issue *domain.Issue, to domain.IssueStatus, actor domain.Principal, p Payload, now time.Time) (string, error) {
	from := issue.Status
	switch {
	case to == domain.IssueStatusVIVerified:
		stamp(&issue.VerifiedAt, now)
		return strings.TrimSpace(p.Comment), nil

	case to == domain.IssueStatusRejected:
		reason := firstNonEmpty(p.Reason, p.Comment)
		if reason != "" {
			issue.RejectionReason = &reason
		}
		return reason, nil

	case from == domain.IssueStatusVIVerified && (to == domain.IssueStatusPDOAssigned || to == domain.IssueStatusInProgress):
		if p.Worker == nil {
			return "", apperrors.NewValidationError("assigned worker required", nil)
		}
		if !p.Worker.Active {
			return "", apperrors.NewConflict("worker inactive", map[string]any{"worker_id": p.Worker.ID})
		}
		if issue.Jurisdiction.PanchayatID == "" || p.Worker.PanchayatID != issue.Jurisdiction.PanchayatID {
			return "", apperrors.NewNotAuthorized("worker outside issue panchayat", map[string]any{
				"worker_id": p.Worker.ID,
			})
		}
		assigned := p.Worker.AsAssignment()
		issue.AssignedWorker = &assigned
		stamp(&issue.AssignedAt, now)
		return firstNonEmpty(p.Comment, "assigned to "+assigned.Name), nil

	case to == domain.IssueStatusInProgress:
		return strings.TrimSpace(p.Comment), nil

	case from == domain.IssueStatusInProgress && (to == domain.IssueStatusResolved || to == domain.IssueStatusCompletedByVI):
		note := strings.TrimSpace(p.CompletionNote)
		photo := strings.TrimSpace(p.CompletionPhotoURL)
		if note == "" || photo == "" {
			return "", apperrors.NewValidationError("completion note and photo required", nil)
		}
		issue.CompletionLogs = append(issue.CompletionLogs, domain.CompletionLog{
			Note:     note,
			PhotoURL: photo,
			ByUID:    actor.UID,
			ByRole:   actor.Role,
			At:       now,
		})
		issue.CompletionPhotoURL = &photo
		stamp(&issue.CompletedAt, now)
		if to == domain.IssueStatusResolved {
			stamp(&issue.ResolvedAt, now)
		}
		return note, nil

	case from == domain.IssueStatusCompletedByVI:
		stamp(&issue.ResolvedAt, now)
		if note := firstNonEmpty(p.ResolutionNote, p.Comment); note != "" {
			issue.ResolutionNote = &note
			return note, nil
		}
		return "completion confirmed", nil

	case to == domain.IssueStatusEscalatedTDO || to == domain.IssueStatusEscalatedDDO:
		return escalate(issue, to, p, now)

	case from.IsEscalated() && to == domain.IssueStatusResolved:
		note := firstNonEmpty(p.ResolutionNote, p.Comment)
		if note == "" {
			return "", apperrors.NewValidationError("resolution note required", nil)
		}
		issue.ResolutionNote = &note
		stamp(&issue.ResolvedAt, now)
		return note, nil

	case to == domain.IssueStatusClosed:
		stamp(&issue.ClosedAt, now)
		return firstNonEmpty(p.Comment, "closed"), nil
	}
	return "", apperrors.NewInvalidTransition(string(from), string(to))
}

func escalate(issue *domain.Issue, to domain.IssueStatus, p Payload, now time.Time) (string, error) {
	reason := firstNonEmpty(p.Reason, p.Comment)
	if reason == "" {
		var due bool
		if to == domain.IssueStatusEscalatedDDO {
			due = escalation.IsOverdueSinceEscalation(issue, now)
		} else {
			due = escalation.IsOverdue(issue, now)
		}
		if !due {
			return "", apperrors.NewValidationError("escalation requires an elapsed SLA or a reason", map[string]any{
				"sla_days": issue.EffectiveSLADays(),
			})
		}
		reason = fmt.Sprintf("SLA exceeded: pending %d days", escalation.DaysPending(issue, now))
	}
	level := domain.EscalationLevelTDO
	if to == domain.IssueStatusEscalatedDDO {
		level = domain.EscalationLevelDDO
	}
	issue.Escalated = true
	issue.EscalationLevel = &level
	issue.EscalationReason = &reason
	stamp(&issue.EscalatedAt, now)
	return reason, nil
}

// stamp sets a lifecycle timestamp once; later transitions never rewrite it.
func stamp(field **time.Time, now time.Time) {
	if *field != nil {
		return
	}
	t := now
	*field = &t
}

func hasRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
