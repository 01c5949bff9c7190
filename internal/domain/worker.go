package domain

import "time"

// Worker is a field worker a PDO can assign to issues in their panchayat.
type Worker struct {
	ID          string
	Name        string
	Phone       string
	Role        string
	PanchayatID string
	Active      bool
	CreatedAt   time.Time
}

// AsAssignment snapshots the worker onto an issue.
func (w Worker) AsAssignment() AssignedWorker {
	return AssignedWorker{ID: w.ID, Name: w.Name, Phone: w.Phone, Role: w.Role}
}
