package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/events"
	"github.com/vital-portal/vital/internal/repository"
	"github.com/vital-portal/vital/internal/workflow"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

// FundService runs the fund request sub-workflow.
type FundService struct {
	requests   repository.FundRequestRepository
	issues     repository.IssueRepository
	audits     repository.AuditLogRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger

	// Now is the service clock; tests replace it.
	Now func() time.Time
}

// FundDependencies bundles repositories for fund service.
type FundDependencies struct {
	FundRequestRepo repository.FundRequestRepository
	IssueRepo       repository.IssueRepository
	AuditRepo       repository.AuditLogRepository
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// FundRequestInput is what a PDO or village in-charge submits.
type FundRequestInput struct {
	IssueID     string
	Amount      float64
	Reason      string
	Description string
}

// FundDecisionInput is the TDO's decision.
type FundDecisionInput struct {
	Decision       domain.FundDecision
	ApprovedAmount *float64
	Comment        string
}

// FundListFilter narrows fund request listings.
type FundListFilter struct {
	Statuses []domain.FundRequestStatus
	IssueID  *string
	Limit    int
	Offset   int
}

// NewFundService constructs the service.
func NewFundService(deps FundDependencies) *FundService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FundService{
		requests:   deps.FundRequestRepo,
		issues:     deps.IssueRepo,
		audits:     deps.AuditRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		Now:        time.Now,
	}
}

// Create files a pending fund request in the actor's jurisdiction. A linked
// issue must lie inside that jurisdiction too.
func (s *FundService) Create(ctx context.Context, actor domain.Principal, in FundRequestInput) (*TransitionResult, error) {
	if actor.Role != domain.RolePDO && actor.Role != domain.RoleVillageIncharge {
		return nil, apperrors.NewNotAuthorized("only a PDO or village in-charge may request funds", nil)
	}
	if !actor.Verified {
		return nil, apperrors.NewUnverified(string(domain.VerificationPending), "")
	}
	if err := workflow.ValidateRequestedAmount(in.Amount); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reason required", nil)
	}

	req := &domain.FundRequest{
		Amount:          in.Amount,
		Reason:          reason,
		Description:     strings.TrimSpace(in.Description),
		Jurisdiction:    actor.Jurisdiction,
		Status:          domain.FundRequestPending,
		RequestedBy:     actor.UID,
		RequestedByRole: actor.Role,
		CreatedAt:       s.Now(),
	}
	if issueID := strings.TrimSpace(in.IssueID); issueID != "" {
		issue, err := s.issues.GetByID(ctx, issueID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
			}
			return nil, apperrors.MapError(err)
		}
		if !actor.CanAccess(issue.Jurisdiction) {
			return nil, apperrors.NewNotAuthorized("issue outside jurisdiction", map[string]any{"issue_id": issueID})
		}
		req.IssueID = &issueID
		req.Jurisdiction = issue.Jurisdiction
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, apperrors.MapError(err)
	}

	id := req.ID
	warning := appendAudit(ctx, s.audits, s.logger, domain.AuditLogEntry{
		Action:          domain.ActionFundRequested,
		IssueID:         req.IssueID,
		FundRequestID:   &id,
		ByUID:           actor.UID,
		ByRole:          actor.Role,
		Comment:         reason,
		ResultingStatus: string(req.Status),
		Timestamp:       req.CreatedAt,
	})
	publish(ctx, s.dispatcher, s.logger, s.Now, events.Event{
		Type:          events.EventFundRequestCreated,
		FundRequestID: req.ID,
		IssueID:       deref(req.IssueID),
		Actor:         events.ActorFrom(actor),
		Payload: events.FundRequestCreatedPayload{
			Amount: req.Amount,
			Reason: req.Reason,
			Taluk:  req.Jurisdiction.Taluk,
		},
	})
	return &TransitionResult{FundRequest: req, AuditWarning: warning}, nil
}

// Get returns a fund request inside the actor's jurisdiction.
func (s *FundService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.FundRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewFund(actor, req) {
		return nil, apperrors.NewNotAuthorized("fund request outside jurisdiction", map[string]any{"fund_request_id": id})
	}
	return req, nil
}

// List returns fund requests visible to the actor.
func (s *FundService) List(ctx context.Context, actor domain.Principal, filter FundListFilter) ([]*domain.FundRequest, error) {
	if actor.Role == domain.RoleVillager {
		return nil, apperrors.NewNotAuthorized("villagers cannot view fund requests", nil)
	}
	requests, err := s.requests.List(ctx, repository.FundRequestFilter{
		Scope:    repository.ScopeFor(actor),
		IssueID:  filter.IssueID,
		Statuses: filter.Statuses,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	visible := requests[:0]
	for _, req := range requests {
		if canViewFund(actor, req) {
			visible = append(visible, req)
		}
	}
	return visible, nil
}

// Decide approves or rejects a pending request. A request decided by someone
// else in the meantime reports AlreadyDecided.
func (s *FundService) Decide(ctx context.Context, actor domain.Principal, id string, in FundDecisionInput) (*TransitionResult, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next, entry, err := workflow.Decide(req, in.Decision, actor, in.ApprovedAmount, in.Comment, s.Now())
	if err != nil {
		return nil, err
	}
	if err := s.requests.Update(ctx, next); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if current, loadErr := s.load(ctx, id); loadErr == nil {
				return nil, apperrors.NewAlreadyDecided(string(current.Status))
			}
		}
		return nil, apperrors.MapError(err)
	}

	warning := appendAudit(ctx, s.audits, s.logger, entry)
	publish(ctx, s.dispatcher, s.logger, s.Now, events.Event{
		Type:          events.EventFundRequestDecided,
		FundRequestID: next.ID,
		IssueID:       deref(next.IssueID),
		Actor:         events.ActorFrom(actor),
		Payload: events.FundRequestDecidedPayload{
			Status:         next.Status,
			ApprovedAmount: next.ApprovedAmount,
			Comment:        entry.Comment,
		},
	})
	return &TransitionResult{FundRequest: next, AuditWarning: warning}, nil
}

// ListAuditTrail returns the decision trail of a visible fund request.
func (s *FundService) ListAuditTrail(ctx context.Context, actor domain.Principal, id string) ([]domain.AuditLogEntry, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	entries, err := s.audits.ListByFundRequest(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *FundService) load(ctx context.Context, id string) (*domain.FundRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("fund request", map[string]any{"fund_request_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return req, nil
}

func canViewFund(actor domain.Principal, req *domain.FundRequest) bool {
	if actor.Role == domain.RoleVillager {
		return false
	}
	return actor.CanAccess(req.Jurisdiction)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
