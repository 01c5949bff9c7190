package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vital-portal/vital/internal/domain"
)

// AuditLogRepository appends and reads the audit trail. Entries are never
// updated or deleted.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
	ListByIssue(ctx context.Context, issueID string) ([]domain.AuditLogEntry, error)
	ListByFundRequest(ctx context.Context, fundRequestID string) ([]domain.AuditLogEntry, error)
}

type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	const query = `
        INSERT INTO audit_logs (action, issue_id, fund_request_id, by_uid, by_role, comment, from_status, resulting_status, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		entry.Action,
		entry.IssueID,
		entry.FundRequestID,
		entry.ByUID,
		entry.ByRole,
		entry.Comment,
		entry.FromStatus,
		entry.ResultingStatus,
		entry.Timestamp,
	).Scan(&entry.ID)
}

func (r *auditLogRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.AuditLogEntry, error) {
	const query = `
        SELECT id, action, issue_id, fund_request_id, by_uid, by_role, comment, from_status, resulting_status, created_at
        FROM audit_logs WHERE issue_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditLogs(rows)
}

func (r *auditLogRepository) ListByFundRequest(ctx context.Context, fundRequestID string) ([]domain.AuditLogEntry, error) {
	const query = `
        SELECT id, action, issue_id, fund_request_id, by_uid, by_role, comment, from_status, resulting_status, created_at
        FROM audit_logs WHERE fund_request_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, fundRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditLogs(rows)
}

func scanAuditLogs(rows pgx.Rows) ([]domain.AuditLogEntry, error) {
	result := make([]domain.AuditLogEntry, 0)
	for rows.Next() {
		var entry domain.AuditLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.IssueID,
			&entry.FundRequestID,
			&entry.ByUID,
			&entry.ByRole,
			&entry.Comment,
			&entry.FromStatus,
			&entry.ResultingStatus,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
