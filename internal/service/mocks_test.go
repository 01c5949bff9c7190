package service

import (
	"context"
	"sync"
	"time"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/events"
	"github.com/vital-portal/vital/internal/repository"
)

// ---------------------------------------------------------------------------
// Manual mocks (moq-style with func fields)
// ---------------------------------------------------------------------------

type mockIssueRepo struct {
	CreateFunc  func(ctx context.Context, issue *domain.Issue) error
	UpdateFunc  func(ctx context.Context, issue *domain.Issue, from domain.IssueStatus) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Issue, error)
	ListFunc    func(ctx context.Context, filter repository.IssueFilter) ([]*domain.Issue, error)
}

func (m *mockIssueRepo) Create(ctx context.Context, issue *domain.Issue) error {
	return m.CreateFunc(ctx, issue)
}

func (m *mockIssueRepo) Update(ctx context.Context, issue *domain.Issue, from domain.IssueStatus) error {
	return m.UpdateFunc(ctx, issue, from)
}

func (m *mockIssueRepo) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockIssueRepo) List(ctx context.Context, filter repository.IssueFilter) ([]*domain.Issue, error) {
	return m.ListFunc(ctx, filter)
}

type mockAuditRepo struct {
	AppendFunc            func(ctx context.Context, entry *domain.AuditLogEntry) error
	ListByIssueFunc       func(ctx context.Context, issueID string) ([]domain.AuditLogEntry, error)
	ListByFundRequestFunc func(ctx context.Context, id string) ([]domain.AuditLogEntry, error)
}

func (m *mockAuditRepo) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	return m.AppendFunc(ctx, entry)
}

func (m *mockAuditRepo) ListByIssue(ctx context.Context, issueID string) ([]domain.AuditLogEntry, error) {
	return m.ListByIssueFunc(ctx, issueID)
}

func (m *mockAuditRepo) ListByFundRequest(ctx context.Context, id string) ([]domain.AuditLogEntry, error) {
	return m.ListByFundRequestFunc(ctx, id)
}

type mockVillagerRepo struct {
	CreateFunc   func(ctx context.Context, p *domain.VillagerProfile) error
	UpdateFunc   func(ctx context.Context, p *domain.VillagerProfile) error
	GetByUIDFunc func(ctx context.Context, uid string) (*domain.VillagerProfile, error)
}

func (m *mockVillagerRepo) Create(ctx context.Context, p *domain.VillagerProfile) error {
	return m.CreateFunc(ctx, p)
}

func (m *mockVillagerRepo) Update(ctx context.Context, p *domain.VillagerProfile) error {
	return m.UpdateFunc(ctx, p)
}

func (m *mockVillagerRepo) GetByUID(ctx context.Context, uid string) (*domain.VillagerProfile, error) {
	return m.GetByUIDFunc(ctx, uid)
}

type mockAuthorityRepo struct {
	CreateFunc   func(ctx context.Context, p *domain.AuthorityProfile) error
	UpdateFunc   func(ctx context.Context, p *domain.AuthorityProfile) error
	GetByUIDFunc func(ctx context.Context, uid string) (*domain.AuthorityProfile, error)
	ListFunc     func(ctx context.Context, filter repository.AuthorityFilter) ([]domain.AuthorityProfile, error)
}

func (m *mockAuthorityRepo) Create(ctx context.Context, p *domain.AuthorityProfile) error {
	return m.CreateFunc(ctx, p)
}

func (m *mockAuthorityRepo) Update(ctx context.Context, p *domain.AuthorityProfile) error {
	return m.UpdateFunc(ctx, p)
}

func (m *mockAuthorityRepo) GetByUID(ctx context.Context, uid string) (*domain.AuthorityProfile, error) {
	return m.GetByUIDFunc(ctx, uid)
}

func (m *mockAuthorityRepo) List(ctx context.Context, filter repository.AuthorityFilter) ([]domain.AuthorityProfile, error) {
	return m.ListFunc(ctx, filter)
}

type mockWorkerRepo struct {
	CreateFunc  func(ctx context.Context, w *domain.Worker) error
	UpdateFunc  func(ctx context.Context, w *domain.Worker) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Worker, error)
	ListFunc    func(ctx context.Context, filter repository.WorkerFilter) ([]domain.Worker, error)
}

func (m *mockWorkerRepo) Create(ctx context.Context, w *domain.Worker) error {
	return m.CreateFunc(ctx, w)
}

func (m *mockWorkerRepo) Update(ctx context.Context, w *domain.Worker) error {
	return m.UpdateFunc(ctx, w)
}

func (m *mockWorkerRepo) GetByID(ctx context.Context, id string) (*domain.Worker, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockWorkerRepo) List(ctx context.Context, filter repository.WorkerFilter) ([]domain.Worker, error) {
	return m.ListFunc(ctx, filter)
}

type mockFundRepo struct {
	CreateFunc  func(ctx context.Context, req *domain.FundRequest) error
	UpdateFunc  func(ctx context.Context, req *domain.FundRequest) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.FundRequest, error)
	ListFunc    func(ctx context.Context, filter repository.FundRequestFilter) ([]*domain.FundRequest, error)
}

func (m *mockFundRepo) Create(ctx context.Context, req *domain.FundRequest) error {
	return m.CreateFunc(ctx, req)
}

func (m *mockFundRepo) Update(ctx context.Context, req *domain.FundRequest) error {
	return m.UpdateFunc(ctx, req)
}

func (m *mockFundRepo) GetByID(ctx context.Context, id string) (*domain.FundRequest, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockFundRepo) List(ctx context.Context, filter repository.FundRequestFilter) ([]*domain.FundRequest, error) {
	return m.ListFunc(ctx, filter)
}

type mockAccountRepo struct {
	CreateFunc         func(ctx context.Context, a *domain.Account) error
	UpdatePasswordFunc func(ctx context.Context, id, hash string) error
	GetByIDFunc        func(ctx context.Context, id string) (*domain.Account, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*domain.Account, error)
}

func (m *mockAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	return m.CreateFunc(ctx, a)
}

func (m *mockAccountRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	return m.UpdatePasswordFunc(ctx, id, hash)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return m.GetByEmailFunc(ctx, email)
}

type mockResetRepo struct {
	CreateFunc     func(ctx context.Context, r *domain.PasswordReset) error
	GetByTokenFunc func(ctx context.Context, token string) (*domain.PasswordReset, error)
	MarkUsedFunc   func(ctx context.Context, id string, at time.Time) error
}

func (m *mockResetRepo) Create(ctx context.Context, r *domain.PasswordReset) error {
	return m.CreateFunc(ctx, r)
}

func (m *mockResetRepo) GetByToken(ctx context.Context, token string) (*domain.PasswordReset, error) {
	return m.GetByTokenFunc(ctx, token)
}

func (m *mockResetRepo) MarkUsed(ctx context.Context, id string, at time.Time) error {
	return m.MarkUsedFunc(ctx, id, at)
}

// recordingDispatcher keeps every published event.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event(nil), d.events...)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func ptr[T any](v T) *T { return &v }

var (
	gpHalli = domain.Jurisdiction{
		District: "Mysuru", DistrictID: "d1",
		Taluk: "Hunsur", TalukID: "t1",
		PanchayatID: "gp1", PanchayatName: "Halli",
	}
	gpOther = domain.Jurisdiction{
		District: "Mysuru", DistrictID: "d1",
		Taluk: "Hunsur", TalukID: "t1",
		PanchayatID: "gp2", PanchayatName: "Kere",
	}
	talukOther = domain.Jurisdiction{
		District: "Mysuru", DistrictID: "d1",
		Taluk: "Nanjangud", TalukID: "t2",
		PanchayatID: "gp9", PanchayatName: "Doddi",
	}
)

func principal(role domain.Role, j domain.Jurisdiction) domain.Principal {
	return domain.Principal{UID: string(role) + "-uid", Name: string(role), Role: role, Jurisdiction: j, Verified: true}
}

func submittedIssue() *domain.Issue {
	return &domain.Issue{
		ID:           "issue-1",
		Status:       domain.IssueStatusSubmitted,
		Category:     "Water",
		Title:        "Broken pipe",
		Description:  "Leak near the temple",
		Jurisdiction: gpHalli,
		ReporterID:   "villager-uid",
		SLADays:      3,
		CreatedAt:    fixedNow.Add(-48 * time.Hour),
		UpdatedAt:    fixedNow.Add(-48 * time.Hour),
	}
}
