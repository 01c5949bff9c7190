package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/escalation"
	"github.com/vital-portal/vital/internal/events"
	"github.com/vital-portal/vital/internal/realtime"
	"github.com/vital-portal/vital/internal/report"
	"github.com/vital-portal/vital/internal/repository"
	"github.com/vital-portal/vital/internal/workflow"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

// IssueStream subscribes to live updates of one issue.
type IssueStream interface {
	Subscribe(ctx context.Context, issueID string) (<-chan realtime.IssueUpdate, func(), error)
}

// IssueService coordinates issue workflows.
type IssueService struct {
	issues     repository.IssueRepository
	audits     repository.AuditLogRepository
	villagers  repository.VillagerRepository
	workers    repository.WorkerRepository
	dispatcher events.Dispatcher
	stream     IssueStream
	logger     *zap.Logger
	slaDays    int
	window     int

	// Now is the service clock; tests replace it.
	Now func() time.Time
}

// IssueDependencies bundles repositories for issue service.
type IssueDependencies struct {
	IssueRepo    repository.IssueRepository
	AuditRepo    repository.AuditLogRepository
	VillagerRepo repository.VillagerRepository
	WorkerRepo   repository.WorkerRepository
	Dispatcher   events.Dispatcher
	Stream       IssueStream
	Logger       *zap.Logger
	// DefaultSLADays applies to new issues that do not name one.
	DefaultSLADays int
	// MonthsWindow bounds the dashboard trend.
	MonthsWindow int
}

// IssueCreateInput describes a villager's report.
type IssueCreateInput struct {
	Category     string
	Title        string
	Description  string
	LocationText string
	// Jurisdiction overrides the reporter's profile when set.
	Jurisdiction *domain.Jurisdiction
	SLADays      int
}

// IssueDraftUpdate edits descriptive fields; nil fields are left unchanged.
type IssueDraftUpdate struct {
	Category     *string
	Title        *string
	Description  *string
	LocationText *string
}

// IssueListFilter describes listing filters.
type IssueListFilter struct {
	Statuses   []domain.IssueStatus
	Category   *string
	Escalated  *bool
	SearchTerm *string
	Limit      int
	Offset     int
}

// TransitionInput carries the role-specific payload of a transition.
type TransitionInput struct {
	Comment            string
	Reason             string
	WorkerID           string
	CompletionNote     string
	CompletionPhotoURL string
	ResolutionNote     string
}

// Dashboard is the landing page data of a role.
type Dashboard struct {
	Role       domain.Role
	Summary    report.Summary
	ByStatus   map[domain.IssueStatus]int
	Queue      []escalation.QueueItem
	Panchayats []report.PanchayatStats
	Monthly    []report.MonthStats
	Recent     []*domain.Issue
}

const dashboardRecent = 10

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sla := deps.DefaultSLADays
	if sla <= 0 {
		sla = domain.DefaultSLADays
	}
	window := deps.MonthsWindow
	if window <= 0 {
		window = 6
	}
	return &IssueService{
		issues:     deps.IssueRepo,
		audits:     deps.AuditRepo,
		villagers:  deps.VillagerRepo,
		workers:    deps.WorkerRepo,
		dispatcher: deps.Dispatcher,
		stream:     deps.Stream,
		logger:     logger,
		slaDays:    sla,
		window:     window,
		Now:        time.Now,
	}
}

// Create files a new issue for a villager. The jurisdiction is copied from
// the reporter's profile unless the input names one.
func (s *IssueService) Create(ctx context.Context, actor domain.Principal, in IssueCreateInput) (*TransitionResult, error) {
	if actor.Role != domain.RoleVillager {
		return nil, apperrors.NewNotAuthorized("only villagers report issues", nil)
	}
	title := strings.TrimSpace(in.Title)
	category := strings.TrimSpace(in.Category)
	description := strings.TrimSpace(in.Description)
	if title == "" || category == "" || description == "" {
		return nil, apperrors.NewValidationError("category, title, description required", nil)
	}
	if in.SLADays < 0 {
		return nil, apperrors.NewValidationError("sla days must not be negative", nil)
	}

	jurisdiction := actor.Jurisdiction
	if in.Jurisdiction != nil {
		jurisdiction = *in.Jurisdiction
	} else if s.villagers != nil {
		profile, err := s.villagers.GetByUID(ctx, actor.UID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewProfileMissing(actor.UID)
			}
			return nil, apperrors.MapError(err)
		}
		jurisdiction = profile.Jurisdiction
	}
	if !hasPanchayat(jurisdiction) {
		return nil, apperrors.NewValidationError("panchayat required", nil)
	}

	sla := in.SLADays
	if sla == 0 {
		sla = s.slaDays
	}
	now := s.Now()
	issue := &domain.Issue{
		Status:       domain.IssueStatusSubmitted,
		Category:     category,
		Title:        title,
		Description:  description,
		LocationText: strings.TrimSpace(in.LocationText),
		Jurisdiction: jurisdiction,
		ReporterID:   actor.UID,
		SLADays:      sla,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	issueID := issue.ID
	warning := appendAudit(ctx, s.audits, s.logger, domain.AuditLogEntry{
		Action:          domain.ActionIssueCreated,
		IssueID:         &issueID,
		ByUID:           actor.UID,
		ByRole:          actor.Role,
		ResultingStatus: string(issue.Status),
		Timestamp:       now,
	})
	publish(ctx, s.dispatcher, s.logger, s.Now, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		Actor:   events.ActorFrom(actor),
		Payload: events.IssueCreatedPayload{
			Category:    issue.Category,
			Title:       issue.Title,
			PanchayatID: issue.Jurisdiction.PanchayatID,
		},
	})
	return &TransitionResult{Issue: issue, AuditWarning: warning}, nil
}

// UpdateDraft lets the reporter edit an issue that nobody has acted on yet.
func (s *IssueService) UpdateDraft(ctx context.Context, actor domain.Principal, id string, in IssueDraftUpdate) (*domain.Issue, error) {
	issue, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleVillager || issue.ReporterID != actor.UID {
		return nil, apperrors.NewNotAuthorized("only the reporter may edit an issue", nil)
	}
	if issue.Status != domain.IssueStatusSubmitted {
		return nil, apperrors.NewConflict("issue can only be edited while submitted", map[string]any{
			"status": issue.Status,
		})
	}

	next := issue.Clone()
	for _, f := range []struct {
		dst *string
		src *string
		req bool
	}{
		{&next.Category, in.Category, true},
		{&next.Title, in.Title, true},
		{&next.Description, in.Description, true},
		{&next.LocationText, in.LocationText, false},
	} {
		if f.src == nil {
			continue
		}
		v := strings.TrimSpace(*f.src)
		if f.req && v == "" {
			return nil, apperrors.NewValidationError("category, title, description must not be blank", nil)
		}
		*f.dst = v
	}
	next.UpdatedAt = s.Now()
	if err := s.persist(ctx, next, issue.Status); err != nil {
		return nil, err
	}
	return next, nil
}

// Get returns an issue the actor may see: villagers their own, authorities
// those inside their jurisdiction, admins everything.
func (s *IssueService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Issue, error) {
	issue, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, issue) {
		return nil, apperrors.NewNotAuthorized("issue outside jurisdiction", map[string]any{"issue_id": id})
	}
	return issue, nil
}

// List returns the issues visible to the actor.
func (s *IssueService) List(ctx context.Context, actor domain.Principal, filter IssueListFilter) ([]*domain.Issue, error) {
	repoFilter := repository.IssueFilter{
		Statuses:   filter.Statuses,
		Category:   filter.Category,
		Escalated:  filter.Escalated,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	return s.list(ctx, actor, repoFilter)
}

func (s *IssueService) list(ctx context.Context, actor domain.Principal, filter repository.IssueFilter) ([]*domain.Issue, error) {
	if actor.Role == domain.RoleVillager {
		uid := actor.UID
		filter.ReporterID = &uid
	} else {
		filter.Scope = repository.ScopeFor(actor)
	}
	issues, err := s.issues.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	visible := issues[:0]
	for _, issue := range issues {
		if canView(actor, issue) {
			visible = append(visible, issue)
		}
	}
	return visible, nil
}

// Transition moves an issue along the lifecycle graph on behalf of actor.
func (s *IssueService) Transition(ctx context.Context, actor domain.Principal, id string, target domain.IssueStatus, in TransitionInput) (*TransitionResult, error) {
	if !target.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": target})
	}
	issue, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, issue) {
		return nil, apperrors.NewNotAuthorized("issue outside jurisdiction", map[string]any{"issue_id": id})
	}

	payload := workflow.Payload{
		Comment:            in.Comment,
		Reason:             in.Reason,
		CompletionNote:     in.CompletionNote,
		CompletionPhotoURL: in.CompletionPhotoURL,
		ResolutionNote:     in.ResolutionNote,
	}
	if workerID := strings.TrimSpace(in.WorkerID); workerID != "" {
		worker, err := s.workers.GetByID(ctx, workerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("worker", map[string]any{"worker_id": workerID})
			}
			return nil, apperrors.MapError(err)
		}
		payload.Worker = worker
	}

	return s.apply(ctx, issue, target, actor, payload)
}

func (s *IssueService) apply(ctx context.Context, issue *domain.Issue, target domain.IssueStatus, actor domain.Principal, payload workflow.Payload) (*TransitionResult, error) {
	next, entry, err := workflow.Apply(issue, target, actor, payload, s.Now())
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, next, issue.Status); err != nil {
		return nil, err
	}

	warning := appendAudit(ctx, s.audits, s.logger, entry)
	publish(ctx, s.dispatcher, s.logger, s.Now, events.Event{
		Type:    events.EventIssueStatusChanged,
		IssueID: next.ID,
		Actor:   events.ActorFrom(actor),
		Payload: events.IssueStatusChangedPayload{
			OldStatus: issue.Status,
			NewStatus: next.Status,
			Action:    entry.Action,
			Comment:   entry.Comment,
		},
	})
	return &TransitionResult{Issue: next, AuditWarning: warning}, nil
}

// persist stores next if the issue still carries status from. A concurrent
// writer that moved it first turns into a conflict.
func (s *IssueService) persist(ctx context.Context, next *domain.Issue, from domain.IssueStatus) error {
	err := s.issues.Update(ctx, next, from)
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if current, loadErr := s.load(ctx, next.ID); loadErr == nil && current.Status != from {
			return apperrors.NewConflict("issue changed concurrently", map[string]any{
				"issue_id": next.ID,
				"status":   current.Status,
			})
		}
	}
	return apperrors.MapError(err)
}

// ListAuditTrail returns the trail of an issue the actor may see.
func (s *IssueService) ListAuditTrail(ctx context.Context, actor domain.Principal, id string) ([]domain.AuditLogEntry, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	entries, err := s.audits.ListByIssue(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// CloseResolved closes issues resolved more than olderThan ago on behalf of
// the system principal. It keeps going past individual failures and reports
// how many issues it closed.
func (s *IssueService) CloseResolved(ctx context.Context, olderThan time.Duration) (int, error) {
	before := s.Now().Add(-olderThan)
	issues, err := s.issues.List(ctx, repository.IssueFilter{
		Statuses:       []domain.IssueStatus{domain.IssueStatusResolved},
		ResolvedBefore: &before,
		Limit:          repository.MaxPageSize,
	})
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	system := domain.SystemPrincipal()
	closed := 0
	var errs []error
	for _, issue := range issues {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.apply(ctx, issue, domain.IssueStatusClosed, system, workflow.Payload{Comment: "closed after resolution period"}); err != nil {
			s.logger.Warn("close resolved issue failed", zap.String("issue_id", issue.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		closed++
	}
	return closed, errors.Join(errs...)
}

// EscalationQueue returns the issues awaiting the actor, most urgent first.
func (s *IssueService) EscalationQueue(ctx context.Context, actor domain.Principal) ([]escalation.QueueItem, error) {
	switch actor.Role {
	case domain.RoleTDO, domain.RoleDDO, domain.RoleAdmin:
	default:
		return nil, apperrors.NewNotAuthorized("escalation queue is for TDO, DDO and admin", nil)
	}
	issues, err := s.list(ctx, actor, repository.IssueFilter{
		Statuses: queueStatuses(actor.Role),
		Limit:    repository.MaxPageSize,
	})
	if err != nil {
		return nil, err
	}
	return escalation.Queue(issues, actor.Role, s.Now()), nil
}

func queueStatuses(role domain.Role) []domain.IssueStatus {
	switch role {
	case domain.RoleTDO:
		return []domain.IssueStatus{
			domain.IssueStatusEscalatedTDO,
			domain.IssueStatusVIVerified,
			domain.IssueStatusPDOAssigned,
			domain.IssueStatusInProgress,
		}
	case domain.RoleDDO:
		return []domain.IssueStatus{domain.IssueStatusEscalatedDDO, domain.IssueStatusEscalatedTDO}
	}
	return []domain.IssueStatus{domain.IssueStatusEscalatedTDO, domain.IssueStatusEscalatedDDO}
}

// Dashboard assembles the landing page of the actor's role.
func (s *IssueService) Dashboard(ctx context.Context, actor domain.Principal) (*Dashboard, error) {
	issues, err := s.list(ctx, actor, repository.IssueFilter{Limit: repository.MaxPageSize})
	if err != nil {
		return nil, err
	}
	now := s.Now()
	d := &Dashboard{
		Role:     actor.Role,
		Summary:  report.SummaryStats(issues),
		ByStatus: make(map[domain.IssueStatus]int, len(domain.AllIssueStatuses)),
		Monthly:  report.MonthlyTrend(issues, s.window, now),
	}
	for _, issue := range issues {
		d.ByStatus[issue.Status]++
	}
	switch actor.Role {
	case domain.RoleTDO, domain.RoleDDO, domain.RoleAdmin:
		d.Queue = escalation.Queue(issues, actor.Role, now)
		d.Panchayats = report.GroupByGramPanchayat(issues)
	}
	recent := issues
	if len(recent) > dashboardRecent {
		recent = recent[:dashboardRecent]
	}
	d.Recent = recent
	return d, nil
}

// Subscribe streams live updates of an issue the actor may see.
func (s *IssueService) Subscribe(ctx context.Context, actor domain.Principal, id string) (<-chan realtime.IssueUpdate, func(), error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, nil, err
	}
	if s.stream == nil {
		return nil, nil, apperrors.NewTransient(realtime.ErrUnavailable)
	}
	updates, cancel, err := s.stream.Subscribe(ctx, id)
	if err != nil {
		return nil, nil, apperrors.NewTransient(err)
	}
	return updates, cancel, nil
}

func (s *IssueService) load(ctx context.Context, id string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return issue, nil
}

func canView(actor domain.Principal, issue *domain.Issue) bool {
	if actor.Role == domain.RoleVillager {
		return issue.ReporterID == actor.UID
	}
	return actor.CanAccess(issue.Jurisdiction)
}
