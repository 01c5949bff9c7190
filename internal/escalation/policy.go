// Package escalation derives urgency from elapsed time and decides which
// issues surface in an authority's escalation queue. It never changes an
// issue's status.
package escalation

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vital-portal/vital/internal/domain"
)

// Priority is the derived urgency of an issue.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorityRank = map[Priority]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// Rank orders priorities from low (0) to critical (3).
func (p Priority) Rank() int {
	return priorityRank[p]
}

const day = 24 * time.Hour

// criticalCategories always map to PriorityCritical.
var criticalCategories = []string{"Health Emergency", "Accident", "Natural Disaster"}

// DaysPending is ceil((now - createdAt) / 1 day), never negative.
func DaysPending(issue *domain.Issue, now time.Time) int {
	elapsed := now.Sub(issue.CreatedAt)
	if elapsed <= 0 {
		return 0
	}
	return int(math.Ceil(float64(elapsed) / float64(day)))
}

// IsCriticalCategory reports whether category bypasses the elapsed-time mapping.
func IsCriticalCategory(category string) bool {
	category = strings.TrimSpace(category)
	for _, c := range criticalCategories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// ComputePriority maps elapsed days and category to a priority.
func ComputePriority(issue *domain.Issue, now time.Time) Priority {
	if IsCriticalCategory(issue.Category) {
		return PriorityCritical
	}
	days := DaysPending(issue, now)
	switch {
	case days > 30:
		return PriorityCritical
	case days > 15:
		return PriorityHigh
	case days > 7:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// DueAt is the moment the issue's SLA elapses.
func DueAt(issue *domain.Issue) time.Time {
	return issue.CreatedAt.Add(time.Duration(issue.EffectiveSLADays()) * day)
}

// IsOverdue is true when the SLA has elapsed and the issue is not resolved or closed.
func IsOverdue(issue *domain.Issue, now time.Time) bool {
	if issue.Status.IsResolved() {
		return false
	}
	return now.After(DueAt(issue))
}

// IsOverdueSinceEscalation is true when an escalated issue has sat at its
// current level for longer than its SLA.
func IsOverdueSinceEscalation(issue *domain.Issue, now time.Time) bool {
	if issue.EscalatedAt == nil || issue.Status.IsResolved() {
		return false
	}
	return now.After(issue.EscalatedAt.Add(time.Duration(issue.EffectiveSLADays()) * day))
}

var activeStatuses = map[domain.IssueStatus]struct{}{
	domain.IssueStatusVIVerified:  {},
	domain.IssueStatusPDOAssigned: {},
	domain.IssueStatusInProgress:  {},
}

// InQueue decides whether issue belongs in the escalation queue of role.
func InQueue(issue *domain.Issue, role domain.Role, now time.Time) bool {
	switch role {
	case domain.RoleTDO:
		if issue.Status == domain.IssueStatusEscalatedTDO {
			return true
		}
		_, active := activeStatuses[issue.Status]
		return active && IsOverdue(issue, now)
	case domain.RoleDDO:
		if issue.Status == domain.IssueStatusEscalatedDDO {
			return true
		}
		return issue.Status == domain.IssueStatusEscalatedTDO && IsOverdueSinceEscalation(issue, now)
	case domain.RoleAdmin:
		return issue.Status.IsEscalated()
	}
	return false
}

// QueueItem pairs an issue with its derived urgency.
type QueueItem struct {
	Issue       *domain.Issue
	Priority    Priority
	DaysPending int
	Overdue     bool
}

// Queue filters issues for role and orders them most urgent first, oldest
// first within a priority.
func Queue(issues []*domain.Issue, role domain.Role, now time.Time) []QueueItem {
	items := make([]QueueItem, 0)
	for _, issue := range issues {
		if !InQueue(issue, role, now) {
			continue
		}
		items = append(items, QueueItem{
			Issue:       issue,
			Priority:    ComputePriority(issue, now),
			DaysPending: DaysPending(issue, now),
			Overdue:     IsOverdue(issue, now),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority.Rank() != items[j].Priority.Rank() {
			return items[i].Priority.Rank() > items[j].Priority.Rank()
		}
		return items[i].Issue.CreatedAt.Before(items[j].Issue.CreatedAt)
	})
	return items
}
