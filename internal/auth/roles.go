package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vital-portal/vital/internal/domain"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

// DashboardPath is the landing page of a role. Role gates redirect callers here.
func DashboardPath(role domain.Role) string {
	switch role {
	case domain.RoleVillager:
		return "/villager/dashboard"
	case domain.RoleAdmin:
		return "/admin/dashboard"
	}
	if role.IsAuthority() {
		return "/authority/" + role.RouteSegment() + "/dashboard"
	}
	return "/"
}

func wrongRole(p domain.Principal) error {
	return apperrors.NewNotAuthorized("route not available for role "+string(p.Role), map[string]any{
		"redirect": DashboardPath(p.Role),
		"role":     p.Role,
	})
}

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewNotAuthenticated("authentication required")
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return wrongRole(principal)
		}
		return c.Next()
	}
}

// RequireRouteRole guards /authority/:role routes: the :role segment must name
// the caller's own role.
func RequireRouteRole(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewNotAuthenticated("authentication required")
		}
		role, known := domain.ParseRole(c.Params(param))
		if !known || !role.IsAuthority() || role != principal.Role {
			return wrongRole(principal)
		}
		return c.Next()
	}
}
