package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vital-portal/vital/internal/domain"
)

// WorkerFilter defines query params for worker listing.
type WorkerFilter struct {
	PanchayatID string
	Active      *bool
	Limit       int
	Offset      int
}

// WorkerRepository handles persistence for field workers.
type WorkerRepository interface {
	Create(ctx context.Context, worker *domain.Worker) error
	Update(ctx context.Context, worker *domain.Worker) error
	GetByID(ctx context.Context, id string) (*domain.Worker, error)
	List(ctx context.Context, filter WorkerFilter) ([]domain.Worker, error)
}

type workerRepository struct {
	pool *pgxpool.Pool
}

// NewWorkerRepository instantiates the repository.
func NewWorkerRepository(pool *pgxpool.Pool) WorkerRepository {
	return &workerRepository{pool: pool}
}

func (r *workerRepository) Create(ctx context.Context, worker *domain.Worker) error {
	const query = `
        INSERT INTO workers (name, phone, role, panchayat_id, active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		worker.Name,
		worker.Phone,
		worker.Role,
		worker.PanchayatID,
		worker.Active,
	).Scan(&worker.ID, &worker.CreatedAt)
}

func (r *workerRepository) Update(ctx context.Context, worker *domain.Worker) error {
	const query = `
        UPDATE workers SET name=$1, phone=$2, role=$3, active=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		worker.Name,
		worker.Phone,
		worker.Role,
		worker.Active,
		worker.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *workerRepository) GetByID(ctx context.Context, id string) (*domain.Worker, error) {
	const query = `
        SELECT id, name, phone, role, panchayat_id, active, created_at
        FROM workers WHERE id=$1`
	var worker domain.Worker
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&worker.ID,
		&worker.Name,
		&worker.Phone,
		&worker.Role,
		&worker.PanchayatID,
		&worker.Active,
		&worker.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepository) List(ctx context.Context, filter WorkerFilter) ([]domain.Worker, error) {
	w := newWhere()
	if filter.PanchayatID != "" {
		w.add("panchayat_id=%s", filter.PanchayatID)
	}
	if filter.Active != nil {
		w.add("active=%s", *filter.Active)
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT id, name, phone, role, panchayat_id, active, created_at
             FROM workers WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d`, w.String(), limit, offset)

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Worker, 0)
	for rows.Next() {
		var worker domain.Worker
		if err := rows.Scan(
			&worker.ID,
			&worker.Name,
			&worker.Phone,
			&worker.Role,
			&worker.PanchayatID,
			&worker.Active,
			&worker.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, worker)
	}
	return result, rows.Err()
}
