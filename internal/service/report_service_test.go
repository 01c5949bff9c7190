package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/report"
	"github.com/vital-portal/vital/internal/repository"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

func newReportService(issues []*domain.Issue, requests []*domain.FundRequest) *ReportService {
	svc := NewReportService(
		&mockIssueRepo{ListFunc: func(_ context.Context, _ repository.IssueFilter) ([]*domain.Issue, error) {
			return append([]*domain.Issue(nil), issues...), nil
		}},
		&mockFundRepo{ListFunc: func(_ context.Context, _ repository.FundRequestFilter) ([]*domain.FundRequest, error) {
			return append([]*domain.FundRequest(nil), requests...), nil
		}},
		6,
	)
	svc.Now = clock
	return svc
}

func TestReportService_Build(t *testing.T) {
	t.Parallel()
	elsewhere := submittedIssue()
	elsewhere.ID = "issue-2"
	elsewhere.Jurisdiction = talukOther
	svc := newReportService([]*domain.Issue{submittedIssue(), elsewhere}, []*domain.FundRequest{pendingFund()})
	tdo := principal(domain.RoleTDO, gpHalli)

	ds, err := svc.Build(context.Background(), tdo, report.KindSummary)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, ds.GeneratedAt)
	summary, ok := ds.Data.(report.Summary)
	require.True(t, ok)
	assert.Equal(t, 1, summary.Total, "issues outside the taluk are dropped")
	require.NotEmpty(t, ds.Meta)
	assert.Equal(t, report.MetaField{Key: "Scope", Value: "Taluk Hunsur, District Mysuru"}, ds.Meta[0])

	ds, err = svc.Build(context.Background(), tdo, report.KindFundRequests)
	require.NoError(t, err)
	assert.Len(t, ds.Rows, 1)

	ds, err = svc.Build(context.Background(), principal(domain.RoleAdmin, domain.Jurisdiction{}), report.KindPanchayats)
	require.NoError(t, err)
	assert.Len(t, ds.Rows, 2)
}

func TestReportService_Build_PagesThroughAllIssues(t *testing.T) {
	t.Parallel()
	issue := submittedIssue()
	var offsets []int
	svc := NewReportService(
		&mockIssueRepo{ListFunc: func(_ context.Context, filter repository.IssueFilter) ([]*domain.Issue, error) {
			offsets = append(offsets, filter.Offset)
			n := filter.Limit
			if filter.Offset > 0 {
				n = 3
			}
			page := make([]*domain.Issue, n)
			for i := range page {
				page[i] = issue
			}
			return page, nil
		}},
		&mockFundRepo{},
		6,
	)
	svc.Now = clock

	ds, err := svc.Build(context.Background(), principal(domain.RoleAdmin, domain.Jurisdiction{}), report.KindSummary)
	require.NoError(t, err)
	summary, ok := ds.Data.(report.Summary)
	require.True(t, ok)
	assert.Equal(t, repository.MaxPageSize+3, summary.Total)
	assert.Equal(t, []int{0, repository.MaxPageSize}, offsets)
}

func TestReportService_Build_Rejections(t *testing.T) {
	t.Parallel()
	svc := newReportService(nil, nil)

	_, err := svc.Build(context.Background(), principal(domain.RoleVillager, gpHalli), report.KindSummary)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotAuthorized))

	_, err = svc.Build(context.Background(), principal(domain.RoleDDO, gpHalli), report.Kind("weekly"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestScopeLabel(t *testing.T) {
	assert.Equal(t, "All jurisdictions", ScopeLabel(principal(domain.RoleAdmin, domain.Jurisdiction{})))
	assert.Equal(t, "District Mysuru", ScopeLabel(principal(domain.RoleDDO, gpHalli)))
	assert.Equal(t, "Gram Panchayat Halli", ScopeLabel(principal(domain.RolePDO, gpHalli)))
}
