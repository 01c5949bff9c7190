package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vital-portal/vital/internal/api/dto"
	"github.com/vital-portal/vital/internal/service"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

// FundsHandler serves fund request endpoints.
type FundsHandler struct {
	service *service.FundService
}

// NewFundsHandler constructs handler.
func NewFundsHandler(fundService *service.FundService) *FundsHandler {
	return &FundsHandler{service: fundService}
}

// Create handles POST /authority/:role/fund-requests.
func (h *FundsHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateFundRequestRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.service.Create(c.UserContext(), principal, service.FundRequestInput{
		IssueID:     req.IssueID,
		Amount:      req.Amount,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTransitionResponse(result)})
}

// List handles GET .../fund-requests?status=&issueId=.
func (h *FundsHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	statuses, err := parseFundStatuses(c.Query("status"))
	if err != nil {
		return err
	}
	limit, offset := page(c)
	requests, err := h.service.List(c.UserContext(), principal, service.FundListFilter{
		Statuses: statuses,
		IssueID:  optionalString(c.Query("issueId")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFundRequestList(requests)})
}

// Get handles GET .../fund-requests/:id.
func (h *FundsHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	req, err := h.service.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFundRequestResponse(req)})
}

// Decide handles POST /authority/tdo/fund-requests/:id/decision.
func (h *FundsHandler) Decide(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.FundDecisionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Decision == "" {
		return apperrors.NewValidationError("decision required", nil)
	}
	result, err := h.service.Decide(c.UserContext(), principal, c.Params("id"), service.FundDecisionInput{
		Decision:       req.Decision,
		ApprovedAmount: req.ApprovedAmount,
		Comment:        req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTransitionResponse(result)})
}

// AuditTrail handles GET .../fund-requests/:id/audit.
func (h *FundsHandler) AuditTrail(c *fiber.Ctx) error {
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
