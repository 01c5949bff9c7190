package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/escalation"
	"github.com/vital-portal/vital/internal/events"
	"github.com/vital-portal/vital/internal/repository"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

type issueFixture struct {
	issues     *mockIssueRepo
	audits     *mockAuditRepo
	villagers  *mockVillagerRepo
	workers    *mockWorkerRepo
	dispatcher *recordingDispatcher
	stored     map[string]*domain.Issue
	appended   []domain.AuditLogEntry
	updates    int
}

func newIssueFixture(seed ...*domain.Issue) *issueFixture {
	f := &issueFixture{dispatcher: &recordingDispatcher{}, stored: map[string]*domain.Issue{}}
	for _, issue := range seed {
		f.stored[issue.ID] = issue
	}
	f.issues = &mockIssueRepo{
		CreateFunc: func(_ context.Context, issue *domain.Issue) error {
			issue.ID = "new-issue"
			f.stored[issue.ID] = issue
			return nil
		},
		UpdateFunc: func(_ context.Context, issue *domain.Issue, from domain.IssueStatus) error {
			current, ok := f.stored[issue.ID]
			if !ok || current.Status != from {
				return pgx.ErrNoRows
			}
			f.updates++
			f.stored[issue.ID] = issue
			return nil
		},
		GetByIDFunc: func(_ context.Context, id string) (*domain.Issue, error) {
			issue, ok := f.stored[id]
			if !ok {
				return nil, pgx.ErrNoRows
			}
			return issue.Clone(), nil
		},
		ListFunc: func(_ context.Context, _ repository.IssueFilter) ([]*domain.Issue, error) {
			out := make([]*domain.Issue, 0, len(seed))
			for _, issue := range seed {
				out = append(out, f.stored[issue.ID].Clone())
			}
			return out, nil
		},
	}
	f.audits = &mockAuditRepo{
		AppendFunc: func(_ context.Context, entry *domain.AuditLogEntry) error {
			f.appended = append(f.appended, *entry)
			return nil
		},
	}
	f.villagers = &mockVillagerRepo{
		GetByUIDFunc: func(_ context.Context, uid string) (*domain.VillagerProfile, error) {
			return &domain.VillagerProfile{UID: uid, Jurisdiction: gpHalli}, nil
		},
	}
	f.workers = &mockWorkerRepo{
		GetByIDFunc: func(_ context.Context, id string) (*domain.Worker, error) {
			if id != "w1" {
				return nil, pgx.ErrNoRows
			}
			return &domain.Worker{ID: "w1", Name: "Ravi", PanchayatID: "gp1", Active: true}, nil
		},
	}
	return f
}

func (f *issueFixture) service() *IssueService {
	svc := NewIssueService(IssueDependencies{
		IssueRepo:    f.issues,
		AuditRepo:    f.audits,
		VillagerRepo: f.villagers,
		WorkerRepo:   f.workers,
		Dispatcher:   f.dispatcher,
		Logger:       zap.NewNop(),
	})
	svc.Now = clock
	return svc
}

func TestIssueService_Create(t *testing.T) {
	t.Parallel()
	f := newIssueFixture()
	villager := principal(domain.RoleVillager, domain.Jurisdiction{})

	res, err := f.service().Create(context.Background(), villager, IssueCreateInput{
		Category:    " Water ",
		Title:       "Broken pipe",
		Description: "Leak",
	})
	require.NoError(t, err)
	assert.Empty(t, res.AuditWarning)

	issue := res.Issue
	assert.Equal(t, "new-issue", issue.ID)
	assert.Equal(t, domain.IssueStatusSubmitted, issue.Status)
	assert.Equal(t, "Water", issue.Category)
	assert.Equal(t, gpHalli, issue.Jurisdiction, "copied from the villager profile")
	assert.Equal(t, domain.DefaultSLADays, issue.SLADays)
	assert.Equal(t, fixedNow, issue.CreatedAt)

	require.Len(t, f.appended, 1)
	assert.Equal(t, domain.ActionIssueCreated, f.appended[0].Action)
	published := f.dispatcher.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventIssueCreated, published[0].Type)
	assert.NotEmpty(t, published[0].ID)
}

func TestIssueService_Create_Validation(t *testing.T) {
	t.Parallel()
	f := newIssueFixture()

	_, err := f.service().Create(context.Background(), principal(domain.RolePDO, gpHalli), IssueCreateInput{
		Category: "Water", Title: "x", Description: "y",
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotAuthorized))

	_, err = f.service().Create(context.Background(), principal(domain.RoleVillager, gpHalli), IssueCreateInput{Title: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestIssueService_Transition_Verify(t *testing.T) {
	t.Parallel()
	f := newIssueFixture(submittedIssue())
	vi := principal(domain.RoleVillageIncharge, gpHalli)

	res, err := f.service().Transition(context.Background(), vi, "issue-1", domain.IssueStatusVIVerified, TransitionInput{Comment: "checked"})
	require.NoError(t, err)
	assert.Empty(t, res.AuditWarning)
	assert.Equal(t, domain.IssueStatusVIVerified, res.Issue.Status)
	require.NotNil(t, res.Issue.VerifiedAt)
	assert.Equal(t, fixedNow, *res.Issue.VerifiedAt)
	assert.Equal(t, domain.IssueStatusVIVerified, f.stored["issue-1"].Status)

	require.Len(t, f.appended, 1)
	entry := f.appended[0]
	assert.Equal(t, domain.ActionIssueVerified, entry.Action)
	assert.Equal(t, "submitted", entry.FromStatus)
	assert.Equal(t, "vi_verified", entry.ResultingStatus)
	assert.Equal(t, vi.UID, entry.ByUID)

	published := f.dispatcher.published()
	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.IssueStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.IssueStatusSubmitted, payload.OldStatus)
	assert.Equal(t, domain.IssueStatusVIVerified, payload.NewStatus)
}

func TestIssueService_Transition_AuditFailureIsWarning(t *testing.T) {
	t.Parallel()
	f := newIssueFixture(submittedIssue())
	f.audits.AppendFunc = func(context.Context, *domain.AuditLogEntry) error {
		return errors.New("audit store down")
	}

	res, err := f.service().Transition(context.Background(), principal(domain.RoleVillageIncharge, gpHalli),
		"issue-1", domain.IssueStatusRejected, TransitionInput{Reason: "duplicate"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AuditWarning)
	assert.Equal(t, domain.IssueStatusRejected, f.stored["issue-1"].Status, "transition persisted")
	assert.Len(t, f.dispatcher.published(), 1)
}

func TestIssueService_Transition_RejectedLeavesIssueUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		actor  domain.Principal
		target domain.IssueStatus
		code   string
	}{
		{"illegal edge", principal(domain.RoleVillageIncharge, gpHalli), domain.IssueStatusResolved, apperrors.CodeInvalidTransition},
		{"wrong role", principal(domain.RolePDO, gpHalli), domain.IssueStatusVIVerified, apperrors.CodeNotAuthorized},
		{"other panchayat", principal(domain.RoleVillageIncharge, gpOther), domain.IssueStatusVIVerified, apperrors.CodeNotAuthorized},
		{"other panchayat illegal edge", principal(domain.RoleVillageIncharge, gpOther), domain.IssueStatusClosed, apperrors.CodeNotAuthorized},
		{"unknown status", principal(domain.RoleVillageIncharge, gpHalli), domain.IssueStatus("archived"), apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIssueFixture(submittedIssue())
			_, err := f.service().Transition(context.Background(), tt.actor, "issue-1", tt.target, TransitionInput{})
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
			assert.Zero(t, f.updates)
			assert.Empty(t, f.appended)
			assert.Equal(t, domain.IssueStatusSubmitted, f.stored["issue-1"].Status)
		})
	}
}

func TestIssueService_Transition_ConcurrentWriteConflicts(t *testing.T) {
	t.Parallel()
	verified := submittedIssue()
	verified.Status = domain.IssueStatusVIVerified

	f := newIssueFixture(verified)
	update := f.issues.UpdateFunc
	f.issues.UpdateFunc = func(ctx context.Context, issue *domain.Issue, from domain.IssueStatus) error {
		f.stored[issue.ID].Status = domain.IssueStatusInProgress
		return update(ctx, issue, from)
	}

	_, err := f.service().Transition(context.Background(), principal(domain.RoleVillageIncharge, gpHalli),
		"issue-1", domain.IssueStatusEscalatedTDO, TransitionInput{Reason: "no response"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "got %v", err)
	assert.Equal(t, domain.IssueStatusInProgress, f.stored["issue-1"].Status)
	assert.Empty(t, f.appended)
	assert.Empty(t, f.dispatcher.published())
}

func TestIssueService_Transition_AssignWorker(t *testing.T) {
	t.Parallel()
	verified := submittedIssue()
	verified.Status = domain.IssueStatusVIVerified
	pdo := principal(domain.RolePDO, gpHalli)

	f := newIssueFixture(verified)
	res, err := f.service().Transition(context.Background(), pdo, "issue-1", domain.IssueStatusPDOAssigned, TransitionInput{WorkerID: "w1"})
	require.NoError(t, err)
	require.NotNil(t, res.Issue.AssignedWorker)
	assert.Equal(t, "Ravi", res.Issue.AssignedWorker.Name)

	f = newIssueFixture(verified)
	_, err = f.service().Transition(context.Background(), pdo, "issue-1", domain.IssueStatusPDOAssigned, TransitionInput{WorkerID: "ghost"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestIssueService_OverduePotholeLosesOverdueOnceResolved(t *testing.T) {
	t.Parallel()
	issue := submittedIssue()
	issue.Category = "Pothole"
	issue.Status = domain.IssueStatusVIVerified
	issue.SLADays = 3
	issue.CreatedAt = fixedNow.Add(-20 * 24 * time.Hour)

	assert.Equal(t, 20, escalation.DaysPending(issue, fixedNow))
	assert.Equal(t, escalation.PriorityHigh, escalation.ComputePriority(issue, fixedNow))
	assert.True(t, escalation.IsOverdue(issue, fixedNow))

	f := newIssueFixture(issue)
	pdo := principal(domain.RolePDO, gpHalli)
	_, err := f.service().Transition(context.Background(), pdo, "issue-1", domain.IssueStatusInProgress, TransitionInput{WorkerID: "w1"})
	require.NoError(t, err)
	res, err := f.service().Transition(context.Background(), pdo, "issue-1", domain.IssueStatusResolved, TransitionInput{
		CompletionNote:     "filled and levelled",
		CompletionPhotoURL: "https://cdn.example/photos/pdo/road.png",
	})
	require.NoError(t, err)

	resolved := res.Issue
	assert.Equal(t, domain.IssueStatusResolved, resolved.Status)
	assert.True(t, fixedNow.After(escalation.DueAt(resolved)), "past the SLA")
	assert.False(t, escalation.IsOverdue(resolved, fixedNow))
	assert.Equal(t, escalation.PriorityHigh, escalation.ComputePriority(resolved, fixedNow))
}

func TestIssueService_Get_Scoping(t *testing.T) {
	t.Parallel()
	f := newIssueFixture(submittedIssue())
	svc := f.service()
	ctx := context.Background()

	_, err := svc.Get(ctx, domain.Principal{UID: "villager-uid", Role: domain.RoleVillager}, "issue-1")
	assert.NoError(t, err)

	_, err = svc.Get(ctx, domain.Principal{UID: "someone-else", Role: domain.RoleVillager, Jurisdiction: gpHalli}, "issue-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotAuthorized))

	_, err = svc.Get(ctx, principal(domain.RoleTDO, talukOther), "issue-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotAuthorized))

	_, err = svc.Get(ctx, principal(domain.RoleDDO, talukOther), "issue-1")
	assert.NoError(t, err, "same district")

	_, err = svc.Get(ctx, principal(domain.RoleAdmin, domain.Jurisdiction{}), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestIssueService_List_FiltersByJurisdiction(t *testing.T) {
	t.Parallel()
	inside := submittedIssue()
	outside := submittedIssue()
	outside.ID = "issue-2"
	outside.Jurisdiction = gpOther

	var got repository.IssueFilter
	f := newIssueFixture(inside, outside)
	list := f.issues.ListFunc
	f.issues.ListFunc = func(ctx context.Context, filter repository.IssueFilter) ([]*domain.Issue, error) {
		got = filter
		return list(ctx, filter)
	}

	issues, err := f.service().List(context.Background(), principal(domain.RolePDO, gpHalli), IssueListFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "issue-1", issues[0].ID)
	require.NotNil(t, got.Scope)
	assert.Equal(t, domain.LevelPanchayat, got.Scope.Level)

	_, err = f.service().List(context.Background(), principal(domain.RoleVillager, gpHalli), IssueListFilter{})
	require.NoError(t, err)
	require.NotNil(t, got.ReporterID)
	assert.Equal(t, "villager-uid", *got.ReporterID)
}

func TestIssueService_UpdateDraft(t *testing.T) {
	t.Parallel()
	reporter := domain.Principal{UID: "villager-uid", Role: domain.RoleVillager}

	f := newIssueFixture(submittedIssue())
	updated, err := f.service().UpdateDraft(context.Background(), reporter, "issue-1", IssueDraftUpdate{Title: ptr("Burst pipe")})
	require.NoError(t, err)
	assert.Equal(t, "Burst pipe", updated.Title)
	assert.Equal(t, "Leak near the temple", updated.Description)

	_, err = f.service().UpdateDraft(context.Background(), reporter, "issue-1", IssueDraftUpdate{Title: ptr("  ")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	verified := submittedIssue()
	verified.Status = domain.IssueStatusVIVerified
	f = newIssueFixture(verified)
	_, err = f.service().UpdateDraft(context.Background(), reporter, "issue-1", IssueDraftUpdate{Title: ptr("x")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestIssueService_CloseResolved(t *testing.T) {
	t.Parallel()
	resolvedAt := fixedNow.Add(-10 * 24 * time.Hour)
	a := submittedIssue()
	a.Status = domain.IssueStatusResolved
	a.ResolvedAt = &resolvedAt
	b := a.Clone()
	b.ID = "issue-2"

	f := newIssueFixture(a, b)
	var filter repository.IssueFilter
	list := f.issues.ListFunc
	f.issues.ListFunc = func(ctx context.Context, got repository.IssueFilter) ([]*domain.Issue, error) {
		filter = got
		return list(ctx, got)
	}
	update := f.issues.UpdateFunc
	f.issues.UpdateFunc = func(ctx context.Context, issue *domain.Issue, from domain.IssueStatus) error {
		if issue.ID == "issue-2" {
			return errors.New("connection reset")
		}
		return update(ctx, issue, from)
	}

	closed, err := f.service().CloseResolved(context.Background(), 7*24*time.Hour)
	assert.Equal(t, 1, closed)
	assert.Error(t, err)
	assert.Equal(t, domain.IssueStatusClosed, f.stored["issue-1"].Status)
	require.NotNil(t, filter.ResolvedBefore)
	assert.Equal(t, fixedNow.Add(-7*24*time.Hour), *filter.ResolvedBefore)
	assert.Equal(t, []domain.IssueStatus{domain.IssueStatusResolved}, filter.Statuses)
	require.Len(t, f.appended, 1)
	assert.Equal(t, domain.RoleSystem, f.appended[0].ByRole)
}

func TestIssueService_EscalationQueue(t *testing.T) {
	t.Parallel()
	escalatedAt := fixedNow.Add(-24 * time.Hour)
	old := submittedIssue()
	old.ID = "old"
	old.Status = domain.IssueStatusEscalatedTDO
	old.CreatedAt = fixedNow.Add(-20 * 24 * time.Hour)
	old.EscalatedAt = &escalatedAt

	emergency := submittedIssue()
	emergency.ID = "emergency"
	emergency.Category = "Health Emergency"
	emergency.Status = domain.IssueStatusEscalatedTDO
	emergency.EscalatedAt = &escalatedAt

	fresh := submittedIssue()
	fresh.ID = "fresh"
	fresh.Status = domain.IssueStatusInProgress
	fresh.CreatedAt = fixedNow.Add(-time.Hour)

	f := newIssueFixture(old, emergency, fresh)
	queue, err := f.service().EscalationQueue(context.Background(), principal(domain.RoleTDO, gpHalli))
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, "emergency", queue[0].Issue.ID)
	assert.Equal(t, escalation.PriorityCritical, queue[0].Priority)
	assert.Equal(t, "old", queue[1].Issue.ID)
	assert.Equal(t, escalation.PriorityHigh, queue[1].Priority)

	_, err = f.service().EscalationQueue(context.Background(), principal(domain.RolePDO, gpHalli))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotAuthorized))
}

func TestIssueService_Dashboard(t *testing.T) {
	t.Parallel()
	resolvedAt := fixedNow
	resolved := submittedIssue()
	resolved.ID = "issue-2"
	resolved.Status = domain.IssueStatusResolved
	resolved.ResolvedAt = &resolvedAt

	f := newIssueFixture(submittedIssue(), resolved)
	d, err := f.service().Dashboard(context.Background(), principal(domain.RoleTDO, gpHalli))
	require.NoError(t, err)
	assert.Equal(t, 2, d.Summary.Total)
	assert.Equal(t, 1, d.Summary.Resolved)
	assert.Equal(t, 50, d.Summary.ResolutionRate)
	assert.Equal(t, 1, d.ByStatus[domain.IssueStatusSubmitted])
	require.Len(t, d.Panchayats, 1)
	assert.Equal(t, "Halli", d.Panchayats[0].Name)
	assert.Len(t, d.Recent, 2)
}
