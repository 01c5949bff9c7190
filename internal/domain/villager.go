package domain

import "time"

// VillagerProfile is the domain model for citizens who report issues.
type VillagerProfile struct {
	UID          string
	Name         string
	Email        string
	Phone        string
	Jurisdiction Jurisdiction
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
