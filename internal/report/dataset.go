package report

import (
	"strconv"
	"time"

	"github.com/vital-portal/vital/internal/domain"
)

// Kind names a report that can be built and exported.
type Kind string

const (
	KindSummary      Kind = "summary"
	KindPanchayats   Kind = "panchayats"
	KindMonthly      Kind = "monthly"
	KindCategories   Kind = "categories"
	KindIssues       Kind = "issues"
	KindFundRequests Kind = "fund-requests"
)

// Kinds lists every report kind.
var Kinds = []Kind{KindSummary, KindPanchayats, KindMonthly, KindCategories, KindIssues, KindFundRequests}

// ParseKind validates a report kind from user input.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// MetaField is one key/value line of a dataset's metadata sheet.
type MetaField struct {
	Key   string
	Value string
}

// Dataset is a tabular rendering of an aggregate, ready for export.
type Dataset struct {
	Kind        Kind
	Title       string
	Headers     []string
	Rows        [][]string
	GeneratedAt time.Time
	Meta        []MetaField
	// Data is the underlying aggregate, used for JSON export.
	Data any
}

func itoa(v int) string { return strconv.Itoa(v) }

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func stamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SummaryDataset renders Summary as a single row.
func SummaryDataset(s Summary) Dataset {
	return Dataset{
		Kind:    KindSummary,
		Title:   "Issue summary",
		Headers: []string{"Total", "Resolved", "Pending", "Escalated", "Resolution Rate (%)", "Escalation Rate (%)"},
		Rows: [][]string{{
			itoa(s.Total), itoa(s.Resolved), itoa(s.Pending), itoa(s.Escalated),
			itoa(s.ResolutionRate), itoa(s.EscalationRate),
		}},
		Data: s,
	}
}

// PanchayatDataset renders the per-panchayat breakdown.
func PanchayatDataset(rows []PanchayatStats) Dataset {
	ds := Dataset{
		Kind:    KindPanchayats,
		Title:   "Gram panchayat performance",
		Headers: []string{"Gram Panchayat", "Total", "Resolved", "Escalated", "Resolution Rate (%)", "Avg Resolution Days"},
		Rows:    make([][]string, 0, len(rows)),
		Data:    rows,
	}
	for _, r := range rows {
		ds.Rows = append(ds.Rows, []string{
			r.Name, itoa(r.Total), itoa(r.Resolved), itoa(r.Escalated), itoa(r.ResolutionRate), itoa(r.AvgResolutionDays),
		})
	}
	return ds
}

// MonthlyDataset renders the monthly trend.
func MonthlyDataset(rows []MonthStats) Dataset {
	ds := Dataset{
		Kind:    KindMonthly,
		Title:   "Monthly trend",
		Headers: []string{"Month", "Total", "Resolved", "Escalated", "Resolution Rate (%)", "Escalation Rate (%)"},
		Rows:    make([][]string, 0, len(rows)),
		Data:    rows,
	}
	for _, r := range rows {
		ds.Rows = append(ds.Rows, []string{
			r.Month, itoa(r.Total), itoa(r.Resolved), itoa(r.Escalated), itoa(r.ResolutionRate), itoa(r.EscalationRate),
		})
	}
	return ds
}

// CategoryDataset renders the category breakdown.
func CategoryDataset(rows []CategoryStats) Dataset {
	ds := Dataset{
		Kind:    KindCategories,
		Title:   "Issues by category",
		Headers: []string{"Category", "Total", "Resolved", "Escalated"},
		Rows:    make([][]string, 0, len(rows)),
		Data:    rows,
	}
	for _, r := range rows {
		ds.Rows = append(ds.Rows, []string{r.Category, itoa(r.Total), itoa(r.Resolved), itoa(r.Escalated)})
	}
	return ds
}

// IssueRow is the flat export shape of an issue.
type IssueRow struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Category       string `json:"category"`
	Status         string `json:"status"`
	GramPanchayat  string `json:"gramPanchayat"`
	Taluk          string `json:"taluk"`
	District       string `json:"district"`
	Escalated      bool   `json:"escalated"`
	AssignedWorker string `json:"assignedWorker,omitempty"`
	CreatedAt      string `json:"createdAt"`
	ResolvedAt     string `json:"resolvedAt,omitempty"`
}

// IssuesDataset renders one row per issue.
func IssuesDataset(issues []*domain.Issue) Dataset {
	rows := make([]IssueRow, 0, len(issues))
	for _, issue := range issues {
		row := IssueRow{
			ID:            issue.ID,
			Title:         issue.Title,
			Category:      issue.Category,
			Status:        string(issue.Status),
			GramPanchayat: issue.Jurisdiction.PanchayatLabel(),
			Taluk:         issue.Jurisdiction.Taluk,
			District:      issue.Jurisdiction.District,
			Escalated:     isEscalated(issue),
			CreatedAt:     issue.CreatedAt.UTC().Format(time.RFC3339),
			ResolvedAt:    stamp(issue.ResolvedAt),
		}
		if issue.AssignedWorker != nil {
			row.AssignedWorker = issue.AssignedWorker.Name
		}
		rows = append(rows, row)
	}

	ds := Dataset{
		Kind:    KindIssues,
		Title:   "Issues",
		Headers: []string{"ID", "Title", "Category", "Status", "Gram Panchayat", "Taluk", "District", "Escalated", "Assigned Worker", "Created At", "Resolved At"},
		Rows:    make([][]string, 0, len(rows)),
		Data:    rows,
	}
	for _, r := range rows {
		ds.Rows = append(ds.Rows, []string{
			r.ID, r.Title, r.Category, r.Status, r.GramPanchayat, r.Taluk, r.District,
			strconv.FormatBool(r.Escalated), r.AssignedWorker, r.CreatedAt, r.ResolvedAt,
		})
	}
	return ds
}

// FundRequestRow is the flat export shape of a fund request.
type FundRequestRow struct {
	ID             string   `json:"id"`
	IssueID        string   `json:"issueId,omitempty"`
	Reason         string   `json:"reason"`
	Amount         float64  `json:"amount"`
	ApprovedAmount *float64 `json:"approvedAmount,omitempty"`
	Status         string   `json:"status"`
	Taluk          string   `json:"taluk"`
	District       string   `json:"district"`
	RequestedBy    string   `json:"requestedBy"`
	Comment        string   `json:"comment,omitempty"`
	CreatedAt      string   `json:"createdAt"`
	DecidedAt      string   `json:"decidedAt,omitempty"`
}

// FundRequestsDataset renders one row per fund request.
func FundRequestsDataset(requests []*domain.FundRequest) Dataset {
	rows := make([]FundRequestRow, 0, len(requests))
	for _, req := range requests {
		rows = append(rows, FundRequestRow{
			ID:             req.ID,
			IssueID:        deref(req.IssueID),
			Reason:         req.Reason,
			Amount:         req.Amount,
			ApprovedAmount: req.ApprovedAmount,
			Status:         string(req.Status),
			Taluk:          req.Jurisdiction.Taluk,
			District:       req.Jurisdiction.District,
			RequestedBy:    req.RequestedBy,
			Comment:        deref(req.TDOComment),
			CreatedAt:      req.CreatedAt.UTC().Format(time.RFC3339),
			DecidedAt:      stamp(req.DecidedAt),
		})
	}

	ds := Dataset{
		Kind:    KindFundRequests,
		Title:   "Fund requests",
		Headers: []string{"ID", "Issue ID", "Reason", "Amount", "Approved Amount", "Status", "Taluk", "District", "Requested By", "Comment", "Created At", "Decided At"},
		Rows:    make([][]string, 0, len(rows)),
		Data:    rows,
	}
	for _, r := range rows {
		approved := ""
		if r.ApprovedAmount != nil {
			approved = money(*r.ApprovedAmount)
		}
		ds.Rows = append(ds.Rows, []string{
			r.ID, r.IssueID, r.Reason, money(r.Amount), approved, r.Status, r.Taluk, r.District,
			r.RequestedBy, r.Comment, r.CreatedAt, r.DecidedAt,
		})
	}
	return ds
}
