package dto

import (
	"time"

	"github.com/vital-portal/vital/internal/domain"
)

// WorkerRequest creates or edits a field worker.
type WorkerRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Role   string `json:"role"`
	Active *bool  `json:"active"`
}

// WorkerResponse describes a field worker.
type WorkerResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone,omitempty"`
	Role        string    `json:"role,omitempty"`
	PanchayatID string    `json:"panchayatId"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewWorkerResponse maps a worker.
func NewWorkerResponse(w *domain.Worker) WorkerResponse {
	return WorkerResponse{
		ID:          w.ID,
		Name:        w.Name,
		Phone:       w.Phone,
		Role:        w.Role,
		PanchayatID: w.PanchayatID,
		Active:      w.Active,
		CreatedAt:   w.CreatedAt,
	}
}

// UploadResponse returns the public URL of a stored photo.
type UploadResponse struct {
	URL string `json:"url"`
}
