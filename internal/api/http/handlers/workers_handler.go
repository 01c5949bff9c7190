package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vital-portal/vital/internal/api/dto"
	"github.com/vital-portal/vital/internal/service"
)

// WorkersHandler lets a PDO manage field workers.
type WorkersHandler struct {
	service *service.WorkerService
}

// NewWorkersHandler constructs handler.
func NewWorkersHandler(workerService *service.WorkerService) *WorkersHandler {
	return &WorkersHandler{service: workerService}
}

// List handles GET /authority/pdo/workers?active=true.
func (h *WorkersHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	activeOnly := c.QueryBool("active", false)
	workers, err := h.service.List(c.UserContext(), principal, activeOnly)
	if err != nil {
		return err
	}
	items := make([]dto.WorkerResponse, 0, len(workers))
	for i := range workers {
		items = append(items, dto.NewWorkerResponse(&workers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create handles POST /authority/pdo/workers.
func (h *WorkersHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.WorkerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	worker, err := h.service.Create(c.UserContext(), principal, workerInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewWorkerResponse(worker)})
}

// Update handles PATCH /authority/pdo/workers/:id.
func (h *WorkersHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.WorkerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	worker, err := h.service.Update(c.UserContext(), principal, c.Params("id"), workerInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkerResponse(worker)})
}

func workerInput(req dto.WorkerRequest) service.WorkerInput {
	return service.WorkerInput{Name: req.Name, Phone: req.Phone, Role: req.Role, Active: req.Active}
}
