package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/repository"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

// WorkerService lets a PDO manage the field workers of their panchayat.
type WorkerService struct {
	workers repository.WorkerRepository
}

// WorkerInput creates or edits a worker.
type WorkerInput struct {
	Name   string
	Phone  string
	Role   string
	Active *bool
}

// NewWorkerService constructs the service.
func NewWorkerService(workers repository.WorkerRepository) *WorkerService {
	return &WorkerService{workers: workers}
}

// Create adds a worker to the PDO's panchayat.
func (s *WorkerService) Create(ctx context.Context, actor domain.Principal, in WorkerInput) (*domain.Worker, error) {
	if err := requirePDO(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	worker := &domain.Worker{
		Name:        name,
		Phone:       strings.TrimSpace(in.Phone),
		Role:        strings.TrimSpace(in.Role),
		PanchayatID: actor.Jurisdiction.PanchayatID,
		Active:      true,
	}
	if in.Active != nil {
		worker.Active = *in.Active
	}
	if err := s.workers.Create(ctx, worker); err != nil {
		return nil, apperrors.MapError(err)
	}
	return worker, nil
}

// Update edits a worker of the PDO's panchayat.
func (s *WorkerService) Update(ctx context.Context, actor domain.Principal, id string, in WorkerInput) (*domain.Worker, error) {
	if err := requirePDO(actor); err != nil {
		return nil, err
	}
	worker, err := s.workers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("worker", map[string]any{"worker_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if worker.PanchayatID != actor.Jurisdiction.PanchayatID {
		return nil, apperrors.NewNotAuthorized("worker outside panchayat", map[string]any{"worker_id": id})
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		worker.Name = name
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		worker.Phone = phone
	}
	if role := strings.TrimSpace(in.Role); role != "" {
		worker.Role = role
	}
	if in.Active != nil {
		worker.Active = *in.Active
	}
	if err := s.workers.Update(ctx, worker); err != nil {
		return nil, apperrors.MapError(err)
	}
	return worker, nil
}

// List returns the workers of the PDO's panchayat.
func (s *WorkerService) List(ctx context.Context, actor domain.Principal, activeOnly bool) ([]domain.Worker, error) {
	if err := requirePDO(actor); err != nil {
		return nil, err
	}
	filter := repository.WorkerFilter{PanchayatID: actor.Jurisdiction.PanchayatID, Limit: repository.MaxPageSize}
	if activeOnly {
		active := true
		filter.Active = &active
	}
	workers, err := s.workers.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return workers, nil
}

// Workers are keyed by panchayat id, so a PDO without one cannot manage any.
func requirePDO(actor domain.Principal) error {
	if actor.Role != domain.RolePDO {
		return apperrors.NewNotAuthorized("only a PDO manages workers", nil)
	}
	if strings.TrimSpace(actor.Jurisdiction.PanchayatID) == "" {
		return apperrors.NewValidationError("profile has no panchayat id", nil)
	}
	return nil
}
