package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/vital-portal/vital/internal/report"
	"github.com/vital-portal/vital/internal/report/export"
	"github.com/vital-portal/vital/internal/service"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

// ReportsHandler renders scoped reports as CSV, XLSX or JSON.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// Kinds handles GET /reports.
func (h *ReportsHandler) Kinds(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": report.Kinds})
}

// Export handles GET /reports/:kind?format=csv|xlsx|json. CSV and XLSX are
// sent as attachments.
func (h *ReportsHandler) Export(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	kind, ok := report.ParseKind(c.Params("kind"))
	if !ok {
		return apperrors.NewValidationError("unknown report", map[string]any{"kind": c.Params("kind"), "kinds": report.Kinds})
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"format": c.Query("format")})
	}

	ds, err := h.service.Build(c.UserContext(), principal, kind)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, ds); err != nil {
		return apperrors.NewInternalError(err)
	}
	if format != export.FormatJSON {
		c.Attachment(export.FileName(kind, format, ds.GeneratedAt))
	}
	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Send(buf.Bytes())
}
