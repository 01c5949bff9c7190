package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vital-portal/vital/internal/domain"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func issue(status domain.IssueStatus, panchayat string, createdDaysAgo int) *domain.Issue {
	return &domain.Issue{
		ID:           panchayat + "-" + string(status),
		Status:       status,
		Category:     "Water",
		Jurisdiction: domain.Jurisdiction{PanchayatName: panchayat},
		CreatedAt:    now.AddDate(0, 0, -createdDaysAgo),
	}
}

func resolvedAfter(i *domain.Issue, d time.Duration) *domain.Issue {
	at := i.CreatedAt.Add(d)
	i.ResolvedAt = &at
	return i
}

func TestSummaryStats_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, SummaryStats(nil))
	assert.Equal(t, Summary{}, SummaryStats([]*domain.Issue{}))
}

func TestSummaryStats(t *testing.T) {
	flagged := issue(domain.IssueStatusInProgress, "A", 1)
	flagged.Escalated = true
	issues := []*domain.Issue{
		issue(domain.IssueStatusSubmitted, "A", 1),
		issue(domain.IssueStatusResolved, "A", 1),
		issue(domain.IssueStatusClosed, "A", 1),
		issue(domain.IssueStatusRejected, "A", 1),
		issue(domain.IssueStatusEscalatedTDO, "A", 1),
		flagged,
	}

	got := SummaryStats(issues)
	assert.Equal(t, Summary{
		Total:          6,
		Resolved:       2,
		Pending:        3,
		Escalated:      2,
		ResolutionRate: 33,
		EscalationRate: 33,
	}, got)
}

func TestPercent_Rounds(t *testing.T) {
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 50, Percent(1, 2))
	assert.Equal(t, 0, Percent(5, 0))
	assert.Equal(t, 100, Percent(4, 4))
}

func TestGroupByGramPanchayat(t *testing.T) {
	issues := []*domain.Issue{
		resolvedAfter(issue(domain.IssueStatusResolved, "Bilikere", 20), 2*24*time.Hour),
		resolvedAfter(issue(domain.IssueStatusClosed, "Bilikere", 20), 5*24*time.Hour+3*time.Hour),
		issue(domain.IssueStatusEscalatedDDO, "Bilikere", 10),
		issue(domain.IssueStatusSubmitted, "Gavadagere", 3),
		issue(domain.IssueStatusSubmitted, "Attigodu", 3),
		{ID: "nameless", Status: domain.IssueStatusSubmitted, CreatedAt: now},
	}

	got := GroupByGramPanchayat(issues)
	require.Len(t, got, 4)
	assert.Equal(t, PanchayatStats{
		Name:              "Bilikere",
		Total:             3,
		Resolved:          2,
		Escalated:         1,
		ResolutionRate:    67,
		AvgResolutionDays: 4,
	}, got[0])
	assert.Equal(t, "Attigodu", got[1].Name)
	assert.Equal(t, "Gavadagere", got[2].Name)
	assert.Equal(t, UnknownPanchayat, got[3].Name)
	assert.Equal(t, 0, got[3].AvgResolutionDays)
}

func TestGroupByGramPanchayat_FallsBackToID(t *testing.T) {
	i := issue(domain.IssueStatusSubmitted, "", 1)
	i.Jurisdiction.PanchayatID = "gp-9"
	got := GroupByGramPanchayat([]*domain.Issue{i})
	require.Len(t, got, 1)
	assert.Equal(t, "gp-9", got[0].Name)
}

func TestMonthlyTrend(t *testing.T) {
	issues := []*domain.Issue{
		{Status: domain.IssueStatusResolved, CreatedAt: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)},
		{Status: domain.IssueStatusSubmitted, CreatedAt: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)},
		{Status: domain.IssueStatusEscalatedTDO, CreatedAt: time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)},
		{Status: domain.IssueStatusResolved, CreatedAt: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
	}

	got := MonthlyTrend(issues, 3, now)
	require.Len(t, got, 2)
	assert.Equal(t, MonthStats{Month: "2025-06", Total: 2, Resolved: 1, ResolutionRate: 50}, got[0])
	assert.Equal(t, MonthStats{Month: "2025-04", Total: 1, Escalated: 1, EscalationRate: 100}, got[1])

	assert.Len(t, MonthlyTrend(issues, 12, now), 3)
	assert.Empty(t, MonthlyTrend(issues, 0, now))
}

func TestCategoryBreakdown(t *testing.T) {
	road := issue(domain.IssueStatusResolved, "A", 1)
	road.Category = "Road"
	blank := issue(domain.IssueStatusSubmitted, "A", 1)
	blank.Category = " "
	got := CategoryBreakdown([]*domain.Issue{issue(domain.IssueStatusSubmitted, "A", 1), issue(domain.IssueStatusEscalatedTDO, "B", 1), road, blank})

	require.Len(t, got, 3)
	assert.Equal(t, CategoryStats{Category: "Water", Total: 2, Escalated: 1}, got[0])
	assert.Equal(t, "Other", got[1].Category)
	assert.Equal(t, CategoryStats{Category: "Road", Total: 1, Resolved: 1}, got[2])
}

func TestFundSummary(t *testing.T) {
	approved := 700.0
	got := FundSummary([]*domain.FundRequest{
		{Amount: 1000, Status: domain.FundRequestApproved, ApprovedAmount: &approved},
		{Amount: 500, Status: domain.FundRequestPending},
		{Amount: 250, Status: domain.FundRequestRejected},
	})
	assert.Equal(t, FundStats{Total: 3, Pending: 1, Approved: 1, Rejected: 1, RequestedAmount: 1750, ApprovedAmount: 700}, got)
}

func TestDatasets(t *testing.T) {
	ds := SummaryDataset(Summary{Total: 4, Resolved: 1, Pending: 3, ResolutionRate: 25})
	require.Len(t, ds.Rows, 1)
	assert.Len(t, ds.Rows[0], len(ds.Headers))
	assert.Equal(t, "25", ds.Rows[0][4])

	i := resolvedAfter(issue(domain.IssueStatusResolved, "Bilikere", 5), 24*time.Hour)
	i.AssignedWorker = &domain.AssignedWorker{Name: "Ravi"}
	issues := IssuesDataset([]*domain.Issue{i})
	require.Len(t, issues.Rows, 1)
	assert.Len(t, issues.Rows[0], len(issues.Headers))
	assert.Equal(t, "Ravi", issues.Rows[0][8])

	amount := 10.5
	funds := FundRequestsDataset([]*domain.FundRequest{{ID: "fr", Amount: 20, ApprovedAmount: &amount, Status: domain.FundRequestApproved}})
	assert.Equal(t, []string{"fr", "", "", "20.00", "10.50", "approved", "", "", "", "", "0001-01-01T00:00:00Z", ""}, funds.Rows[0])
}
