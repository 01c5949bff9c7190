package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/report"
	"github.com/vital-portal/vital/internal/repository"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

// ReportService builds exportable datasets scoped to the caller.
type ReportService struct {
	issues   repository.IssueRepository
	requests repository.FundRequestRepository
	window   int

	// Now is the service clock; tests replace it.
	Now func() time.Time
}

// NewReportService constructs the service. monthsWindow bounds the monthly trend.
func NewReportService(issues repository.IssueRepository, requests repository.FundRequestRepository, monthsWindow int) *ReportService {
	if monthsWindow <= 0 {
		monthsWindow = 6
	}
	return &ReportService{issues: issues, requests: requests, window: monthsWindow, Now: time.Now}
}

// Build assembles the dataset of kind over everything the actor may see.
func (s *ReportService) Build(ctx context.Context, actor domain.Principal, kind report.Kind) (report.Dataset, error) {
	if actor.Role == domain.RoleVillager {
		return report.Dataset{}, apperrors.NewNotAuthorized("reports are for authorities", nil)
	}
	if _, ok := report.ParseKind(string(kind)); !ok {
		return report.Dataset{}, apperrors.NewValidationError("unknown report", map[string]any{"kind": kind})
	}
	now := s.Now()

	var ds report.Dataset
	if kind == report.KindFundRequests {
		requests, err := s.fundRequests(ctx, actor)
		if err != nil {
			return report.Dataset{}, err
		}
		ds = report.FundRequestsDataset(requests)
		stats := report.FundSummary(requests)
		ds.Meta = append(ds.Meta,
			report.MetaField{Key: "Requested Amount", Value: strconv.FormatFloat(stats.RequestedAmount, 'f', 2, 64)},
			report.MetaField{Key: "Approved Amount", Value: strconv.FormatFloat(stats.ApprovedAmount, 'f', 2, 64)},
		)
	} else {
		issues, err := s.scopedIssues(ctx, actor)
		if err != nil {
			return report.Dataset{}, err
		}
		switch kind {
		case report.KindSummary:
			ds = report.SummaryDataset(report.SummaryStats(issues))
		case report.KindPanchayats:
			ds = report.PanchayatDataset(report.GroupByGramPanchayat(issues))
		case report.KindMonthly:
			ds = report.MonthlyDataset(report.MonthlyTrend(issues, s.window, now))
			ds.Meta = append(ds.Meta, report.MetaField{Key: "Months", Value: strconv.Itoa(s.window)})
		case report.KindCategories:
			ds = report.CategoryDataset(report.CategoryBreakdown(issues))
		case report.KindIssues:
			ds = report.IssuesDataset(issues)
		}
	}

	ds.GeneratedAt = now
	ds.Meta = append([]report.MetaField{
		{Key: "Scope", Value: ScopeLabel(actor)},
		{Key: "Generated By", Value: string(actor.Role)},
	}, ds.Meta...)
	return ds, nil
}

// scopedIssues pages through every issue the actor may see.
func (s *ReportService) scopedIssues(ctx context.Context, actor domain.Principal) ([]*domain.Issue, error) {
	var visible []*domain.Issue
	for offset := 0; ; offset += repository.MaxPageSize {
		page, err := s.issues.List(ctx, repository.IssueFilter{
			Scope:  repository.ScopeFor(actor),
			Limit:  repository.MaxPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for _, issue := range page {
			if actor.CanAccess(issue.Jurisdiction) {
				visible = append(visible, issue)
			}
		}
		if len(page) < repository.MaxPageSize {
			return visible, nil
		}
	}
}

func (s *ReportService) fundRequests(ctx context.Context, actor domain.Principal) ([]*domain.FundRequest, error) {
	var visible []*domain.FundRequest
	for offset := 0; ; offset += repository.MaxPageSize {
		page, err := s.requests.List(ctx, repository.FundRequestFilter{
			Scope:  repository.ScopeFor(actor),
			Limit:  repository.MaxPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for _, req := range page {
			if actor.CanAccess(req.Jurisdiction) {
				visible = append(visible, req)
			}
		}
		if len(page) < repository.MaxPageSize {
			return visible, nil
		}
	}
}

// ScopeLabel describes the jurisdiction a report covers.
func ScopeLabel(actor domain.Principal) string {
	j := actor.Jurisdiction
	pick := func(name, id string) string {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
		return id
	}
	switch actor.Role.Scope() {
	case domain.LevelDistrict:
		return "District " + pick(j.District, j.DistrictID)
	case domain.LevelTaluk:
		return "Taluk " + pick(j.Taluk, j.TalukID) + ", District " + pick(j.District, j.DistrictID)
	case domain.LevelPanchayat:
		return "Gram Panchayat " + j.PanchayatLabel()
	}
	return "All jurisdictions"
}
