package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vital-portal/vital/internal/domain"
)

// FundRequestFilter narrows fund request listings.
type FundRequestFilter struct {
	Scope       *Scope
	IssueID     *string
	RequestedBy *string
	Statuses    []domain.FundRequestStatus
	Limit       int
	Offset      int
}

// FundRequestRepository persists fund requests.
type FundRequestRepository interface {
	Create(ctx context.Context, req *domain.FundRequest) error
	Update(ctx context.Context, req *domain.FundRequest) error
	GetByID(ctx context.Context, id string) (*domain.FundRequest, error)
	List(ctx context.Context, filter FundRequestFilter) ([]*domain.FundRequest, error)
}

type fundRequestRepository struct {
	pool *pgxpool.Pool
}

// NewFundRequestRepository builds repository.
func NewFundRequestRepository(pool *pgxpool.Pool) FundRequestRepository {
	return &fundRequestRepository{pool: pool}
}

const fundRequestColumns = `id, issue_id, amount, approved_amount, reason, description,
        district, district_id, taluk, taluk_id, panchayat_id, panchayat_name, status,
        requested_by, requested_by_role, decided_by, tdo_comment, rejection_reason, created_at, decided_at`

func (r *fundRequestRepository) Create(ctx context.Context, req *domain.FundRequest) error {
	const query = `
        INSERT INTO fund_requests (issue_id, amount, reason, description,
            district, district_id, taluk, taluk_id, panchayat_id, panchayat_name,
            status, requested_by, requested_by_role, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id`
	j := req.Jurisdiction
	return r.pool.QueryRow(ctx, query,
		req.IssueID,
		req.Amount,
		req.Reason,
		req.Description,
		j.District, j.DistrictID, j.Taluk, j.TalukID, j.PanchayatID, j.PanchayatName,
		req.Status,
		req.RequestedBy,
		req.RequestedByRole,
		req.CreatedAt,
	).Scan(&req.ID)
}

// Update records a decision. The pending guard makes a concurrent second
// decision a no-op that surfaces as pgx.ErrNoRows.
func (r *fundRequestRepository) Update(ctx context.Context, req *domain.FundRequest) error {
	const query = `
        UPDATE fund_requests SET status=$1, approved_amount=$2, decided_by=$3, tdo_comment=$4,
            rejection_reason=$5, decided_at=$6
        WHERE id=$7 AND status='pending'`
	cmd, err := r.pool.Exec(ctx, query,
		req.Status,
		req.ApprovedAmount,
		req.DecidedBy,
		req.TDOComment,
		req.RejectionReason,
		req.DecidedAt,
		req.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *fundRequestRepository) GetByID(ctx context.Context, id string) (*domain.FundRequest, error) {
	query := `SELECT ` + fundRequestColumns + ` FROM fund_requests WHERE id=$1`
	return scanFundRequest(r.pool.QueryRow(ctx, query, id))
}

func (r *fundRequestRepository) List(ctx context.Context, filter FundRequestFilter) ([]*domain.FundRequest, error) {
	w := newWhere()
	w.scope(filter.Scope)
	if filter.IssueID != nil {
		w.add("issue_id=%s", *filter.IssueID)
	}
	if filter.RequestedBy != nil {
		w.add("requested_by=%s", *filter.RequestedBy)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		w.in("status", statuses)
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM fund_requests WHERE %s ORDER BY created_at DESC, id ASC LIMIT %d OFFSET %d`,
		fundRequestColumns, w.String(), limit, offset)

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.FundRequest, 0)
	for rows.Next() {
		req, err := scanFundRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func scanFundRequest(row pgx.Row) (*domain.FundRequest, error) {
	var (
		req domain.FundRequest
		j   domain.Jurisdiction
	)
	if err := row.Scan(
		&req.ID,
		&req.IssueID,
		&req.Amount,
		&req.ApprovedAmount,
		&req.Reason,
		&req.Description,
		&j.District, &j.DistrictID, &j.Taluk, &j.TalukID, &j.PanchayatID, &j.PanchayatName,
		&req.Status,
		&req.RequestedBy,
		&req.RequestedByRole,
		&req.DecidedBy,
		&req.TDOComment,
		&req.RejectionReason,
		&req.CreatedAt,
		&req.DecidedAt,
	); err != nil {
		return nil, err
	}
	req.Jurisdiction = j
	return &req, nil
}
