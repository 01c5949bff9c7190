package dto

import (
	"time"

	"github.com/vital-portal/vital/internal/domain"
)

// RegisterVillagerRequest payload.
type RegisterVillagerRequest struct {
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
	Password     string              `json:"password"`
	Jurisdiction JurisdictionPayload `json:"jurisdiction"`
}

// RegisterAuthorityRequest payload.
type RegisterAuthorityRequest struct {
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
	Password     string              `json:"password"`
	Role         string              `json:"role"`
	Jurisdiction JurisdictionPayload `json:"jurisdiction"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse carries a bearer token.
type SessionResponse struct {
	UID         string      `json:"uid"`
	AccessToken string      `json:"accessToken"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	Role        domain.Role `json:"role,omitempty"`
	Redirect    string      `json:"redirect,omitempty"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// VillagerProfileResponse describes a villager.
type VillagerProfileResponse struct {
	UID          string               `json:"uid"`
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	Phone        string               `json:"phone,omitempty"`
	Jurisdiction JurisdictionResponse `json:"jurisdiction"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// AuthorityProfileResponse describes an authority and its review state.
type AuthorityProfileResponse struct {
	UID                string                    `json:"uid"`
	Name               string                    `json:"name"`
	Email              string                    `json:"email"`
	Phone              string                    `json:"phone,omitempty"`
	Role               domain.Role               `json:"role"`
	Jurisdiction       JurisdictionResponse      `json:"jurisdiction"`
	VerificationStatus domain.VerificationStatus `json:"verificationStatus"`
	VerificationReason string                    `json:"verificationReason,omitempty"`
	CreatedAt          time.Time                 `json:"createdAt"`
}

// VerifyAuthorityRequest is an admin review decision.
type VerifyAuthorityRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// NewVillagerProfileResponse maps a villager profile.
func NewVillagerProfileResponse(p *domain.VillagerProfile) VillagerProfileResponse {
	return VillagerProfileResponse{
		UID:          p.UID,
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		Jurisdiction: NewJurisdictionResponse(p.Jurisdiction),
		CreatedAt:    p.CreatedAt,
	}
}

// NewAuthorityProfileResponse maps an authority profile.
func NewAuthorityProfileResponse(p *domain.AuthorityProfile) AuthorityProfileResponse {
	return AuthorityProfileResponse{
		UID:                p.UID,
		Name:               p.Name,
		Email:              p.Email,
		Phone:              p.Phone,
		Role:               p.Role,
		Jurisdiction:       NewJurisdictionResponse(p.Jurisdiction),
		VerificationStatus: p.VerificationStatus,
		VerificationReason: p.VerificationReason,
		CreatedAt:          p.CreatedAt,
	}
}
