package escalation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vital-portal/vital/internal/domain"
)

var base = time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

func issueAt(status domain.IssueStatus, age time.Duration) *domain.Issue {
	return &domain.Issue{ID: "i", Status: status, Category: "Water", CreatedAt: base.Add(-age)}
}

func TestDaysPending(t *testing.T) {
	assert.Equal(t, 0, DaysPending(issueAt(domain.IssueStatusSubmitted, 0), base))
	assert.Equal(t, 0, DaysPending(issueAt(domain.IssueStatusSubmitted, -time.Hour), base))
	assert.Equal(t, 1, DaysPending(issueAt(domain.IssueStatusSubmitted, time.Minute), base))
	assert.Equal(t, 3, DaysPending(issueAt(domain.IssueStatusSubmitted, 72*time.Hour), base))
	assert.Equal(t, 4, DaysPending(issueAt(domain.IssueStatusSubmitted, 72*time.Hour+time.Second), base))
}

func TestComputePriority(t *testing.T) {
	tests := []struct {
		days int
		want Priority
	}{
		{0, PriorityLow},
		{7, PriorityLow},
		{8, PriorityMedium},
		{15, PriorityMedium},
		{16, PriorityHigh},
		{30, PriorityHigh},
		{31, PriorityCritical},
	}
	for _, tt := range tests {
		issue := issueAt(domain.IssueStatusInProgress, time.Duration(tt.days)*24*time.Hour)
		assert.Equal(t, tt.want, ComputePriority(issue, base), "days=%d", tt.days)
	}
}

func TestComputePriority_CriticalCategories(t *testing.T) {
	for _, category := range []string{"Health Emergency", "accident", "NATURAL DISASTER"} {
		issue := issueAt(domain.IssueStatusSubmitted, 0)
		issue.Category = category
		assert.Equal(t, PriorityCritical, ComputePriority(issue, base), category)
	}
}

func TestComputePriority_MonotonicInElapsedTime(t *testing.T) {
	issue := issueAt(domain.IssueStatusInProgress, 0)
	prev := ComputePriority(issue, base)
	for h := 1; h <= 40*24; h += 7 {
		p := ComputePriority(issue, base.Add(time.Duration(h)*time.Hour))
		assert.GreaterOrEqual(t, p.Rank(), prev.Rank())
		prev = p
	}
}

func TestIsOverdue(t *testing.T) {
	assert.False(t, IsOverdue(issueAt(domain.IssueStatusInProgress, 72*time.Hour), base))
	assert.True(t, IsOverdue(issueAt(domain.IssueStatusInProgress, 72*time.Hour+time.Second), base))
	assert.False(t, IsOverdue(issueAt(domain.IssueStatusResolved, 30*24*time.Hour), base))
	assert.False(t, IsOverdue(issueAt(domain.IssueStatusClosed, 30*24*time.Hour), base))

	custom := issueAt(domain.IssueStatusInProgress, 5*24*time.Hour)
	custom.SLADays = 7
	assert.False(t, IsOverdue(custom, base))
}

func TestIsOverdueSinceEscalation(t *testing.T) {
	issue := issueAt(domain.IssueStatusEscalatedTDO, 20*24*time.Hour)
	assert.False(t, IsOverdueSinceEscalation(issue, base))

	escalated := base.Add(-24 * time.Hour)
	issue.EscalatedAt = &escalated
	assert.False(t, IsOverdueSinceEscalation(issue, base))
	assert.True(t, IsOverdueSinceEscalation(issue, base.Add(3*24*time.Hour)))
}

func TestInQueue(t *testing.T) {
	escalatedAt := base.Add(-5 * 24 * time.Hour)
	staleTDO := issueAt(domain.IssueStatusEscalatedTDO, 10*24*time.Hour)
	staleTDO.EscalatedAt = &escalatedAt

	assert.True(t, InQueue(issueAt(domain.IssueStatusEscalatedTDO, 0), domain.RoleTDO, base))
	assert.True(t, InQueue(issueAt(domain.IssueStatusInProgress, 4*24*time.Hour), domain.RoleTDO, base))
	assert.False(t, InQueue(issueAt(domain.IssueStatusInProgress, 24*time.Hour), domain.RoleTDO, base))
	assert.False(t, InQueue(issueAt(domain.IssueStatusSubmitted, 40*24*time.Hour), domain.RoleTDO, base))

	assert.True(t, InQueue(issueAt(domain.IssueStatusEscalatedDDO, 0), domain.RoleDDO, base))
	assert.True(t, InQueue(staleTDO, domain.RoleDDO, base))
	assert.False(t, InQueue(issueAt(domain.IssueStatusEscalatedTDO, 0), domain.RoleDDO, base))

	assert.False(t, InQueue(issueAt(domain.IssueStatusEscalatedTDO, 0), domain.RolePDO, base))
}

func TestQueue_Order(t *testing.T) {
	oldMedium := issueAt(domain.IssueStatusEscalatedTDO, 10*24*time.Hour)
	oldMedium.ID = "old-medium"
	newMedium := issueAt(domain.IssueStatusEscalatedTDO, 9*24*time.Hour)
	newMedium.ID = "new-medium"
	emergency := issueAt(domain.IssueStatusEscalatedTDO, time.Hour)
	emergency.ID = "emergency"
	emergency.Category = "Accident"
	fresh := issueAt(domain.IssueStatusInProgress, time.Hour)
	fresh.ID = "fresh"

	items := Queue([]*domain.Issue{newMedium, fresh, oldMedium, emergency}, domain.RoleTDO, base)
	require.Len(t, items, 3)
	assert.Equal(t, "emergency", items[0].Issue.ID)
	assert.Equal(t, PriorityCritical, items[0].Priority)
	assert.Equal(t, "old-medium", items[1].Issue.ID)
	assert.Equal(t, "new-medium", items[2].Issue.ID)
	assert.Equal(t, 10, items[1].DaysPending)
	assert.True(t, items[1].Overdue)
}
