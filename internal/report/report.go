// Package report aggregates issues and fund requests into dashboard and export
// structures. All functions are pure.
package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vital-portal/vital/internal/domain"
)

// UnknownPanchayat labels issues that carry neither a panchayat name nor id.
const UnknownPanchayat = "Unknown"

// Summary holds headline counts for a set of issues.
type Summary struct {
	Total          int `json:"total"`
	Resolved       int `json:"resolved"`
	Pending        int `json:"pending"`
	Escalated      int `json:"escalated"`
	ResolutionRate int `json:"resolutionRate"`
	EscalationRate int `json:"escalationRate"`
}

// PanchayatStats is one row of the per-panchayat breakdown.
type PanchayatStats struct {
	Name              string `json:"name"`
	Total             int    `json:"total"`
	Resolved          int    `json:"resolved"`
	Escalated         int    `json:"escalated"`
	ResolutionRate    int    `json:"resolutionRate"`
	AvgResolutionDays int    `json:"avgResolutionDays"`
}

// MonthStats is one calendar month of the trend.
type MonthStats struct {
	Month          string `json:"month"`
	Total          int    `json:"total"`
	Resolved       int    `json:"resolved"`
	Escalated      int    `json:"escalated"`
	ResolutionRate int    `json:"resolutionRate"`
	EscalationRate int    `json:"escalationRate"`
}

// CategoryStats counts issues per category.
type CategoryStats struct {
	Category  string `json:"category"`
	Total     int    `json:"total"`
	Resolved  int    `json:"resolved"`
	Escalated int    `json:"escalated"`
}

// FundStats summarises fund requests.
type FundStats struct {
	Total           int     `json:"total"`
	Pending         int     `json:"pending"`
	Approved        int     `json:"approved"`
	Rejected        int     `json:"rejected"`
	RequestedAmount float64 `json:"requestedAmount"`
	ApprovedAmount  float64 `json:"approvedAmount"`
}

// Percent returns part/total as a rounded integer percentage, 0 when total is 0.
func Percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

func isEscalated(issue *domain.Issue) bool {
	return issue.Escalated || issue.Status.IsEscalated()
}

// SummaryStats counts issues by outcome. Pending excludes resolved, closed and rejected issues.
func SummaryStats(issues []*domain.Issue) Summary {
	var s Summary
	for _, issue := range issues {
		s.Total++
		if issue.Status.IsResolved() {
			s.Resolved++
		}
		if !issue.Status.IsTerminal() {
			s.Pending++
		}
		if isEscalated(issue) {
			s.Escalated++
		}
	}
	s.ResolutionRate = Percent(s.Resolved, s.Total)
	s.EscalationRate = Percent(s.Escalated, s.Total)
	return s
}

type panchayatAcc struct {
	stats         PanchayatStats
	resolvedDays  int
	resolvedCount int
}

// GroupByGramPanchayat breaks issues down per panchayat, largest first.
func GroupByGramPanchayat(issues []*domain.Issue) []PanchayatStats {
	groups := make(map[string]*panchayatAcc)
	for _, issue := range issues {
		name := issue.Jurisdiction.PanchayatLabel()
		if name == "" {
			name = UnknownPanchayat
		}
		acc, ok := groups[name]
		if !ok {
			acc = &panchayatAcc{stats: PanchayatStats{Name: name}}
			groups[name] = acc
		}
		acc.stats.Total++
		if isEscalated(issue) {
			acc.stats.Escalated++
		}
		if issue.Status.IsResolved() {
			acc.stats.Resolved++
			if issue.ResolvedAt != nil {
				acc.resolvedDays += wholeDays(issue.ResolvedAt.Sub(issue.CreatedAt))
				acc.resolvedCount++
			}
		}
	}

	out := make([]PanchayatStats, 0, len(groups))
	for _, acc := range groups {
		acc.stats.ResolutionRate = Percent(acc.stats.Resolved, acc.stats.Total)
		if acc.resolvedCount > 0 {
			acc.stats.AvgResolutionDays = int(math.Round(float64(acc.resolvedDays) / float64(acc.resolvedCount)))
		}
		out = append(out, acc.stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func wholeDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// MonthlyTrend groups issues created within monthsWindow months of now by
// calendar month, newest first.
func MonthlyTrend(issues []*domain.Issue, monthsWindow int, now time.Time) []MonthStats {
	if monthsWindow <= 0 {
		return []MonthStats{}
	}
	cutoff := now.AddDate(0, -monthsWindow, 0)
	months := make(map[string]*MonthStats)
	for _, issue := range issues {
		if issue.CreatedAt.Before(cutoff) {
			continue
		}
		key := issue.CreatedAt.In(now.Location()).Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthStats{Month: key}
			months[key] = m
		}
		m.Total++
		if issue.Status.IsResolved() {
			m.Resolved++
		}
		if isEscalated(issue) {
			m.Escalated++
		}
	}

	out := make([]MonthStats, 0, len(months))
	for _, m := range months {
		m.ResolutionRate = Percent(m.Resolved, m.Total)
		m.EscalationRate = Percent(m.Escalated, m.Total)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out
}

// CategoryBreakdown counts issues per category, largest first.
func CategoryBreakdown(issues []*domain.Issue) []CategoryStats {
	groups := make(map[string]*CategoryStats)
	for _, issue := range issues {
		name := strings.TrimSpace(issue.Category)
		if name == "" {
			name = "Other"
		}
		c, ok := groups[name]
		if !ok {
			c = &CategoryStats{Category: name}
			groups[name] = c
		}
		c.Total++
		if issue.Status.IsResolved() {
			c.Resolved++
		}
		if isEscalated(issue) {
			c.Escalated++
		}
	}
	out := make([]CategoryStats, 0, len(groups))
	for _, c := range groups {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// FundSummary totals fund requests by status.
func FundSummary(requests []*domain.FundRequest) FundStats {
	var s FundStats
	for _, req := range requests {
		s.Total++
		s.RequestedAmount += req.Amount
		switch req.Status {
		case domain.FundRequestPending:
			s.Pending++
		case domain.FundRequestApproved:
			s.Approved++
			if req.ApprovedAmount != nil {
				s.ApprovedAmount += *req.ApprovedAmount
			}
		case domain.FundRequestRejected:
			s.Rejected++
		}
	}
	return s
}
