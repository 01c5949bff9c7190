package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vital-portal/vital/internal/auth"
	"github.com/vital-portal/vital/internal/domain"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

const defaultPageSize = 20

func currentPrincipal(c *fiber.Ctx) (domain.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Principal{}, apperrors.NewNotAuthenticated("authentication required")
	}
	return principal, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// page reads ?page=&pageSize= into limit and offset.
func page(c *fiber.Ctx) (limit, offset int) {
	p := parseInt(c.Query("page"), 1)
	size := parseInt(c.Query("pageSize"), defaultPageSize)
	return size, (p - 1) * size
}

func parseBool(val string) *bool {
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}
	return &b
}

func optionalString(val string) *string {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	return &val
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIssueStatuses(val string) ([]domain.IssueStatus, error) {
	var statuses []domain.IssueStatus
	for _, part := range splitList(val) {
		status := domain.IssueStatus(part)
		if !status.Valid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": part})
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func parseFundStatuses(val string) ([]domain.FundRequestStatus, error) {
	var statuses []domain.FundRequestStatus
	for _, part := range splitList(val) {
		status := domain.FundRequestStatus(part)
		switch status {
		case domain.FundRequestPending, domain.FundRequestApproved, domain.FundRequestRejected:
			statuses = append(statuses, status)
		default:
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": part})
		}
	}
	return statuses, nil
}
