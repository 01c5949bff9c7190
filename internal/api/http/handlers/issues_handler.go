package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vital-portal/vital/internal/api/dto"
	"github.com/vital-portal/vital/internal/service"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

// IssuesHandler serves the issue endpoints of every role. The service scopes
// each call to the caller's principal.
type IssuesHandler struct {
	service *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{service: issueService}
}

// Create handles POST /villager/issues.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateIssueRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Title == "" || req.Category == "" {
		return apperrors.NewValidationError("title and category required", nil)
	}
	input := service.IssueCreateInput{
		Category:     req.Category,
		Title:        req.Title,
		Description:  req.Description,
		LocationText: req.LocationText,
		SLADays:      req.SLADays,
	}
	if !req.Jurisdiction.Empty() {
		j := req.Jurisdiction.Normalize()
		input.Jurisdiction = &j
	}
	result, err := h.service.Create(c.UserContext(), principal, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTransitionResponse(result)})
}

// UpdateDraft handles PATCH /villager/issues/:id.
func (h *IssuesHandler) UpdateDraft(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateIssueRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	issue, err := h.service.UpdateDraft(c.UserContext(), principal, c.Params("id"), service.IssueDraftUpdate{
		Category:     req.Category,
		Title:        req.Title,
		Description:  req.Description,
		LocationText: req.LocationText,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// List handles GET .../issues with ?status=a,b&category=&escalated=&q=.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	statuses, err := parseIssueStatuses(c.Query("status"))
	if err != nil {
		return err
	}
	limit, offset := page(c)
	issues, err := h.service.List(c.UserContext(), principal, service.IssueListFilter{
		Statuses:   statuses,
		Category:   optionalString(c.Query("category")),
		Escalated:  parseBool(c.Query("escalated")),
		SearchTerm: optionalString(c.Query("q")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueList(issues)})
}

// Get handles GET .../issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	issue, err := h.service.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// Transition handles POST .../issues/:id/transitions.
func (h *IssuesHandler) Transition(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	result, err := h.service.Transition(c.UserContext(), principal, c.Params("id"), req.Status, req.Input())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTransitionResponse(result)})
}

// AuditTrail handles GET .../issues/:id/audit.
func (h *IssuesHandler) AuditTrail(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	entries, err := h.service.ListAuditTrail(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuditTrail(entries)})
}

// Dashboard handles the role dashboards.
func (h *IssuesHandler) Dashboard(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	dashboard, err := h.service.Dashboard(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDashboardResponse(dashboard)})
}

// Escalations handles GET /authority/:role/escalations.
func (h *IssuesHandler) Escalations(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	queue, err := h.service.EscalationQueue(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQueue(queue)})
}
