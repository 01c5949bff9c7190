package workflow

import (
	"math"
	"strings"
	"time"

	"github.com/vital-portal/vital/internal/domain"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

// ValidateRequestedAmount checks the amount on a new fund request.
func ValidateRequestedAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return apperrors.NewInvalidAmount("requested amount must be positive", map[string]any{"amount": amount})
	}
	return nil
}

// Decide approves or rejects a pending fund request on behalf of a TDO. A
// missing approvedAmount approves the full requested amount.
func Decide(req *domain.FundRequest, decision domain.FundDecision, actor domain.Principal, approvedAmount *float64, comment string, now time.Time) (*domain.FundRequest, domain.AuditLogEntry, error) {
	if req == nil {
		return nil, domain.AuditLogEntry{}, apperrors.NewNotFound("fund request", nil)
	}
	if req.Status != domain.FundRequestPending {
		return nil, domain.AuditLogEntry{}, apperrors.NewAlreadyDecided(string(req.Status))
	}
	if actor.Role != domain.RoleTDO {
		return nil, domain.AuditLogEntry{}, apperrors.NewNotAuthorized("only a TDO may decide fund requests", nil)
	}
	if !actor.Verified {
		return nil, domain.AuditLogEntry{}, apperrors.NewUnverified(string(domain.VerificationPending), "")
	}
	if !actor.Jurisdiction.Covers(domain.LevelTaluk, req.Jurisdiction) {
		return nil, domain.AuditLogEntry{}, apperrors.NewNotAuthorized("fund request outside jurisdiction", map[string]any{
			"fund_request_id": req.ID,
		})
	}

	next := req.Clone()
	comment = strings.TrimSpace(comment)
	var action domain.AuditAction

	switch decision {
	case domain.FundDecisionApprove:
		amount := req.Amount
		if approvedAmount != nil {
			amount = *approvedAmount
		}
		if math.IsNaN(amount) || amount < 0 || amount > req.Amount {
			return nil, domain.AuditLogEntry{}, apperrors.NewInvalidAmount("approved amount must be between 0 and the requested amount", map[string]any{
				"requested": req.Amount,
				"approved":  amount,
			})
		}
		next.Status = domain.FundRequestApproved
		next.ApprovedAmount = &amount
		if comment != "" {
			next.TDOComment = &comment
		}
		action = domain.ActionFundApproved
	case domain.FundDecisionReject:
		reason := comment
		if reason == "" {
			reason = domain.DefaultRejectionReason
		}
		next.Status = domain.FundRequestRejected
		next.ApprovedAmount = nil
		next.RejectionReason = &reason
		next.TDOComment = &reason
		comment = reason
		action = domain.ActionFundRejected
	default:
		return nil, domain.AuditLogEntry{}, apperrors.NewValidationError("decision must be approved or rejected", map[string]any{
			"decision": decision,
		})
	}

	decidedAt := now
	decidedBy := actor.UID
	next.DecidedAt = &decidedAt
	next.DecidedBy = &decidedBy

	reqID := next.ID
	entry := domain.AuditLogEntry{
		Action:          action,
		FundRequestID:   &reqID,
		IssueID:         next.IssueID,
		ByUID:           actor.UID,
		ByRole:          actor.Role,
		Comment:         comment,
		FromStatus:      string(domain.FundRequestPending),
		ResultingStatus: string(next.Status),
		Timestamp:       now,
	}
	return next, entry, nil
}
