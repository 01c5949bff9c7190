package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vital-portal/vital/internal/domain"
)

// IssueFilter captures listing parameters for issues.
type IssueFilter struct {
	Scope          *Scope
	ReporterID     *string
	Statuses       []domain.IssueStatus
	Category       *string
	Escalated      *bool
	SearchTerm     *string
	CreatedFrom    *time.Time
	ResolvedBefore *time.Time
	Limit          int
	Offset         int
}

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	// Update writes issue only while its stored status is still from.
	Update(ctx context.Context, issue *domain.Issue, from domain.IssueStatus) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	List(ctx context.Context, filter IssueFilter) ([]*domain.Issue, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, status, category, title, description, location_text,
        district, district_id, taluk, taluk_id, panchayat_id, panchayat_name, reporter_id,
        assigned_worker, escalated, escalation_level, escalation_reason, sla_days,
        completion_photo_url, completion_logs, resolution_note, rejection_reason,
        created_at, updated_at, verified_at, assigned_at, completed_at, resolved_at, escalated_at, closed_at`

// workerDoc and completionLogDoc are the JSONB shapes stored on the issue row.
type workerDoc struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

type completionLogDoc struct {
	Note     string    `json:"note"`
	PhotoURL string    `json:"photoUrl"`
	ByUID    string    `json:"byUid"`
	ByRole   string    `json:"byRole"`
	At       time.Time `json:"at"`
}

func encodeIssueDocs(issue *domain.Issue) ([]byte, []byte, error) {
	var worker []byte
	if issue.AssignedWorker != nil {
		w := issue.AssignedWorker
		b, err := json.Marshal(workerDoc{ID: w.ID, Name: w.Name, Phone: w.Phone, Role: w.Role})
		if err != nil {
			return nil, nil, fmt.Errorf("encode assigned worker: %w", err)
		}
		worker = b
	}
	logs := make([]completionLogDoc, 0, len(issue.CompletionLogs))
	for _, l := range issue.CompletionLogs {
		logs = append(logs, completionLogDoc{Note: l.Note, PhotoURL: l.PhotoURL, ByUID: l.ByUID, ByRole: string(l.ByRole), At: l.At})
	}
	logBytes, err := json.Marshal(logs)
	if err != nil {
		return nil, nil, fmt.Errorf("encode completion logs: %w", err)
	}
	return worker, logBytes, nil
}

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	worker, logs, err := encodeIssueDocs(issue)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO issues (status, category, title, description, location_text,
            district, district_id, taluk, taluk_id, panchayat_id, panchayat_name, reporter_id,
            assigned_worker, sla_days, completion_logs, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$16)
        RETURNING id`
	j := issue.Jurisdiction
	return r.pool.QueryRow(ctx, query,
		issue.Status,
		issue.Category,
		issue.Title,
		issue.Description,
		issue.LocationText,
		j.District, j.DistrictID, j.Taluk, j.TalukID, j.PanchayatID, j.PanchayatName,
		issue.ReporterID,
		worker,
		issue.EffectiveSLADays(),
		logs,
		issue.CreatedAt,
	).Scan(&issue.ID)
}

func (r *issueRepository) Update(ctx context.Context, issue *domain.Issue, from domain.IssueStatus) error {
	worker, logs, err := encodeIssueDocs(issue)
	if err != nil {
		return err
	}
	const query = `
        UPDATE issues SET status=$1, category=$2, title=$3, description=$4, location_text=$5,
            assigned_worker=$6, escalated=$7, escalation_level=$8, escalation_reason=$9, sla_days=$10,
            completion_photo_url=$11, completion_logs=$12, resolution_note=$13, rejection_reason=$14,
            updated_at=$15, verified_at=$16, assigned_at=$17, completed_at=$18, resolved_at=$19,
            escalated_at=$20, closed_at=$21
        WHERE id=$22 AND status=$23`
	cmd, err := r.pool.Exec(ctx, query,
		issue.Status,
		issue.Category,
		issue.Title,
		issue.Description,
		issue.LocationText,
		worker,
		issue.Escalated,
		issue.EscalationLevel,
		issue.EscalationReason,
		issue.EffectiveSLADays(),
		issue.CompletionPhotoURL,
		logs,
		issue.ResolutionNote,
		issue.RejectionReason,
		issue.UpdatedAt,
		issue.VerifiedAt,
		issue.AssignedAt,
		issue.CompletedAt,
		issue.ResolvedAt,
		issue.EscalatedAt,
		issue.ClosedAt,
		issue.ID,
		from,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id=$1`
	return scanIssue(r.pool.QueryRow(ctx, query, id))
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]*domain.Issue, error) {
	w := newWhere()
	w.scope(filter.Scope)

	if filter.ReporterID != nil {
		w.add("reporter_id=%s", *filter.ReporterID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		w.in("status", statuses)
	}
	if filter.Category != nil && strings.TrimSpace(*filter.Category) != "" {
		w.add("lower(category)=lower(%s)", strings.TrimSpace(*filter.Category))
	}
	if filter.Escalated != nil {
		if *filter.Escalated {
			w.add("(escalated OR status IN (%s,%s))", domain.IssueStatusEscalatedTDO, domain.IssueStatusEscalatedDDO)
		} else {
			w.add("NOT escalated AND status NOT IN (%s,%s)", domain.IssueStatusEscalatedTDO, domain.IssueStatusEscalatedDDO)
		}
	}
	if filter.CreatedFrom != nil {
		w.add("created_at >= %s", *filter.CreatedFrom)
	}
	if filter.ResolvedBefore != nil {
		w.add("resolved_at < %s", *filter.ResolvedBefore)
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		placeholder := w.arg(search)
		w.clauses = append(w.clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY created_at DESC, id ASC LIMIT %d OFFSET %d`,
		issueColumns, w.String(), limit, offset)

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Issue, 0)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var (
		issue  domain.Issue
		j      domain.Jurisdiction
		worker []byte
		logs   []byte
		level  *string
	)
	if err := row.Scan(
		&issue.ID,
		&issue.Status,
		&issue.Category,
		&issue.Title,
		&issue.Description,
		&issue.LocationText,
		&j.District, &j.DistrictID, &j.Taluk, &j.TalukID, &j.PanchayatID, &j.PanchayatName,
		&issue.ReporterID,
		&worker,
		&issue.Escalated,
		&level,
		&issue.EscalationReason,
		&issue.SLADays,
		&issue.CompletionPhotoURL,
		&logs,
		&issue.ResolutionNote,
		&issue.RejectionReason,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&issue.VerifiedAt,
		&issue.AssignedAt,
		&issue.CompletedAt,
		&issue.ResolvedAt,
		&issue.EscalatedAt,
		&issue.ClosedAt,
	); err != nil {
		return nil, err
	}
	issue.Jurisdiction = j
	if level != nil {
		l := domain.EscalationLevel(*level)
		issue.EscalationLevel = &l
	}
	if len(worker) > 0 {
		var doc workerDoc
		if err := json.Unmarshal(worker, &doc); err != nil {
			return nil, fmt.Errorf("decode assigned worker: %w", err)
		}
		issue.AssignedWorker = &domain.AssignedWorker{ID: doc.ID, Name: doc.Name, Phone: doc.Phone, Role: doc.Role}
	}
	if len(logs) > 0 {
		var docs []completionLogDoc
		if err := json.Unmarshal(logs, &docs); err != nil {
			return nil, fmt.Errorf("decode completion logs: %w", err)
		}
		for _, d := range docs {
			issue.CompletionLogs = append(issue.CompletionLogs, domain.CompletionLog{
				Note: d.Note, PhotoURL: d.PhotoURL, ByUID: d.ByUID, ByRole: domain.Role(d.ByRole), At: d.At,
			})
		}
	}
	return &issue, nil
}
