package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vital-portal/vital/internal/domain"
)

// AuthorityFilter narrows authority listings for the admin console.
type AuthorityFilter struct {
	Role   *domain.Role
	Status *domain.VerificationStatus
	Limit  int
	Offset int
}

// AuthorityRepository handles persistence for authority profiles.
type AuthorityRepository interface {
	Create(ctx context.Context, profile *domain.AuthorityProfile) error
	Update(ctx context.Context, profile *domain.AuthorityProfile) error
	GetByUID(ctx context.Context, uid string) (*domain.AuthorityProfile, error)
	List(ctx context.Context, filter AuthorityFilter) ([]domain.AuthorityProfile, error)
}

type authorityRepository struct {
	pool *pgxpool.Pool
}

// NewAuthorityRepository instantiates the repository.
func NewAuthorityRepository(pool *pgxpool.Pool) AuthorityRepository {
	return &authorityRepository{pool: pool}
}

const authorityColumns = `uid, name, email, phone, role, district, district_id, taluk, taluk_id,
        panchayat_id, panchayat_name, verification_status, verification_reason, created_at, updated_at`

func (r *authorityRepository) Create(ctx context.Context, p *domain.AuthorityProfile) error {
	const query = `
        INSERT INTO authorities (uid, name, email, phone, role, district, district_id, taluk, taluk_id,
            panchayat_id, panchayat_name, verification_status, verification_reason)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING created_at, updated_at`
	j := p.Jurisdiction
	return r.pool.QueryRow(ctx, query,
		p.UID,
		p.Name,
		p.Email,
		p.Phone,
		p.Role,
		j.District, j.DistrictID, j.Taluk, j.TalukID, j.PanchayatID, j.PanchayatName,
		p.VerificationStatus,
		p.VerificationReason,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *authorityRepository) Update(ctx context.Context, p *domain.AuthorityProfile) error {
	const query = `
        UPDATE authorities SET name=$1, phone=$2, verification_status=$3, verification_reason=$4, updated_at=NOW()
        WHERE uid=$5`
	cmd, err := r.pool.Exec(ctx, query,
		p.Name,
		p.Phone,
		p.VerificationStatus,
		p.VerificationReason,
		p.UID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *authorityRepository) GetByUID(ctx context.Context, uid string) (*domain.AuthorityProfile, error) {
	query := `SELECT ` + authorityColumns + ` FROM authorities WHERE uid=$1`
	return scanAuthority(r.pool.QueryRow(ctx, query, uid))
}

func (r *authorityRepository) List(ctx context.Context, filter AuthorityFilter) ([]domain.AuthorityProfile, error) {
	w := newWhere()
	if filter.Role != nil {
		w.add("role=%s", string(*filter.Role))
	}
	if filter.Status != nil {
		w.add("verification_status=%s", string(*filter.Status))
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM authorities WHERE %s ORDER BY created_at ASC LIMIT %d OFFSET %d`,
		authorityColumns, w.String(), limit, offset)

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.AuthorityProfile, 0)
	for rows.Next() {
		p, err := scanAuthority(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func scanAuthority(row pgx.Row) (*domain.AuthorityProfile, error) {
	var (
		p domain.AuthorityProfile
		j domain.Jurisdiction
	)
	if err := row.Scan(
		&p.UID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.Role,
		&j.District, &j.DistrictID, &j.Taluk, &j.TalukID, &j.PanchayatID, &j.PanchayatName,
		&p.VerificationStatus,
		&p.VerificationReason,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Jurisdiction = j
	return &p, nil
}
