package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vital-portal/vital/internal/api/dto"
	"github.com/vital-portal/vital/internal/auth"
	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/service"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and password endpoints.
type AuthHandler struct {
	auth *service.AuthService
	// exposeResetToken returns reset tokens in the response body, for
	// environments without an outbound mail relay.
	exposeResetToken bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, exposeResetToken bool) *AuthHandler {
	return &AuthHandler{auth: authService, exposeResetToken: exposeResetToken}
}

// RegisterVillager handles POST /auth/villagers/register.
func (h *AuthHandler) RegisterVillager(c *fiber.Ctx) error {
	var req dto.RegisterVillagerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}
	profile, session, err := h.auth.RegisterVillager(c.UserContext(), service.VillagerRegistration{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		Jurisdiction: req.Jurisdiction.Normalize(),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"profile": dto.NewVillagerProfileResponse(profile),
			"auth":    sessionResponse(session, domain.RoleVillager, auth.DashboardPath(domain.RoleVillager)),
		},
	})
}

// RegisterAuthority handles POST /auth/authorities/register. The new profile
// waits for admin review, so the caller is sent to the status page.
func (h *AuthHandler) RegisterAuthority(c *fiber.Ctx) error {
	var req dto.RegisterAuthorityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": req.Role})
	}
	profile, session, err := h.auth.RegisterAuthority(c.UserContext(), service.AuthorityRegistration{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		Role:         role,
		Jurisdiction: req.Jurisdiction.Normalize(),
	})
	if err != nil {
		return err
	}
	redirect := apperrors.RedirectAuthorityState + "?state=" + string(profile.VerificationStatus)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"profile": dto.NewAuthorityProfileResponse(profile),
			"auth":    sessionResponse(session, profile.Role, redirect),
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(result.Session, result.Role, result.Redirect)})
}

// AuthorityStatus handles GET /auth/authority/status. Only the session is
// checked so pending and rejected officers can read their review state.
func (h *AuthHandler) AuthorityStatus(c *fiber.Ctx) error {
	uid, ok := auth.SessionUID(c)
	if !ok {
		return apperrors.NewNotAuthenticated("authentication required")
	}
	profile, err := h.auth.AuthorityStatus(c.UserContext(), uid)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuthorityProfileResponse(profile)})
}

// RequestPasswordReset handles POST /auth/password/reset/request.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	reset, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	data := fiber.Map{"status": "requested"}
	if h.exposeResetToken && reset != nil {
		data["resetToken"] = reset.Token
		data["expiresAt"] = reset.ExpiresAt
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": data})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("token and new password required", nil)
	}
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	uid, ok := auth.SessionUID(c)
	if !ok {
		return apperrors.NewNotAuthenticated("authentication required")
	}
	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current and new password required", nil)
	}
	if err := h.auth.ChangePassword(c.UserContext(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func sessionResponse(s service.Session, role domain.Role, redirect string) dto.SessionResponse {
	return dto.SessionResponse{
		UID:         s.UID,
		AccessToken: s.Token,
		ExpiresAt:   s.ExpiresAt,
		Role:        role,
		Redirect:    redirect,
	}
}
