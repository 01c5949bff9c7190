package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vital-portal/vital/internal/domain"
)

// VillagerRepository defines persistence access for villager profiles.
type VillagerRepository interface {
	Create(ctx context.Context, profile *domain.VillagerProfile) error
	Update(ctx context.Context, profile *domain.VillagerProfile) error
	GetByUID(ctx context.Context, uid string) (*domain.VillagerProfile, error)
}

type villagerRepository struct {
	pool *pgxpool.Pool
}

// NewVillagerRepository returns a Postgres-backed implementation.
func NewVillagerRepository(pool *pgxpool.Pool) VillagerRepository {
	return &villagerRepository{pool: pool}
}

func (r *villagerRepository) Create(ctx context.Context, p *domain.VillagerProfile) error {
	const query = `
        INSERT INTO villagers (uid, name, email, phone, district, district_id, taluk, taluk_id, panchayat_id, panchayat_name)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING created_at, updated_at`
	j := p.Jurisdiction
	return r.pool.QueryRow(ctx, query,
		p.UID,
		p.Name,
		p.Email,
		p.Phone,
		j.District, j.DistrictID, j.Taluk, j.TalukID, j.PanchayatID, j.PanchayatName,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *villagerRepository) Update(ctx context.Context, p *domain.VillagerProfile) error {
	const query = `
        UPDATE villagers SET name=$1, phone=$2, district=$3, district_id=$4, taluk=$5, taluk_id=$6,
            panchayat_id=$7, panchayat_name=$8, updated_at=NOW()
        WHERE uid=$9`
	j := p.Jurisdiction
	cmd, err := r.pool.Exec(ctx, query,
		p.Name,
		p.Phone,
		j.District, j.DistrictID, j.Taluk, j.TalukID, j.PanchayatID, j.PanchayatName,
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

func (r *villagerRepository) GetByUID(ctx context.Context, uid string) (*domain.VillagerProfile, error) {
	const query = `
        SELECT uid, name, email, phone, district, district_id, taluk, taluk_id, panchayat_id, panchayat_name, created_at, updated_at
        FROM villagers WHERE uid=$1`

	var (
		p domain.VillagerProfile
		j domain.Jurisdiction
	)
	if err := r.pool.QueryRow(ctx, query, uid).Scan(
		&p.UID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&j.District, &j.DistrictID, &j.Taluk, &j.TalukID, &j.PanchayatID, &j.PanchayatName,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Jurisdiction = j
	return &p, nil
}
