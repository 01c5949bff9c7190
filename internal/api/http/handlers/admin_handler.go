package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vital-portal/vital/internal/api/dto"
	"github.com/vital-portal/vital/internal/observability"
	"github.com/vital-portal/vital/internal/service"
)

// AdminHandler exposes authority review and operational endpoints.
type AdminHandler struct {
	auth       *service.AuthService
	issues     *service.IssueService
	metrics    *observability.Metrics
	closeAfter time.Duration
}

// NewAdminHandler constructs handler. closeAfter is the default age of
// resolved issues swept by CloseResolved.
func NewAdminHandler(authService *service.AuthService, issueService *service.IssueService, metrics *observability.Metrics, closeAfter time.Duration) *AdminHandler {
	return &AdminHandler{auth: authService, issues: issueService, metrics: metrics, closeAfter: closeAfter}
}

// PendingAuthorities handles GET /admin/authorities/pending.
func (h *AdminHandler) PendingAuthorities(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	profiles, err := h.auth.ListPendingAuthorities(c.UserContext(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.AuthorityProfileResponse, 0, len(profiles))
	for i := range profiles {
		items = append(items, dto.NewAuthorityProfileResponse(&profiles[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// VerifyAuthority handles POST /admin/authorities/:uid/verification.
func (h *AdminHandler) VerifyAuthority(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.VerifyAuthorityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	profile, err := h.auth.VerifyAuthority(c.UserContext(), principal, c.Params("uid"), req.Approve, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuthorityProfileResponse(profile)})
}

// Metrics handles GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

// CloseResolved handles POST /admin/issues/close-resolved?olderThanDays=N.
func (h *AdminHandler) CloseResolved(c *fiber.Ctx) error {
	olderThan := h.closeAfter
	if days := parseInt(c.Query("olderThanDays"), 0); days > 0 {
		olderThan = time.Duration(days) * 24 * time.Hour
	}
	closed, err := h.issues.CloseResolved(c.UserContext(), olderThan)
	if err != nil && closed == 0 {
		return err
	}
	data := fiber.Map{"closed": closed}
	if err != nil {
		data["warning"] = err.Error()
	}
	return c.JSON(fiber.Map{"data": data})
}
