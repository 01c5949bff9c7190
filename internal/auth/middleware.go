package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/observability"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"
	sessionKey   = "auth_session_uid"
)

// PrincipalResolver maps an authenticated account uid to a principal.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, uid string) (domain.Principal, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	resolver PrincipalResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, resolver PrincipalResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, resolver: resolver}
}

// Session only checks the token. Routes that must stay reachable for
// unverified authorities, such as the verification status page, use it.
func (m *AuthMiddleware) Session(c *fiber.Ctx) error {
	if _, err := m.authenticate(c); err != nil {
		return err
	}
	return c.Next()
}

// Handle enforces authentication and resolves the caller's principal.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	uid, err := m.authenticate(c)
	if err != nil {
		return err
	}
	principal, err := m.resolver.ResolvePrincipal(c.UserContext(), uid)
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (string, error) {
	raw, err := bearerToken(c)
	if err != nil {
		return "", err
	}
	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return "", apperrors.NewNotAuthenticated("invalid or expired session")
	}
	c.Locals(sessionKey, claims.UID)
	c.Locals(observability.UIDLocalKey, claims.UID)
	return claims.UID, nil
}

// bearerToken reads the Authorization header. EventSource clients cannot set
// headers, so the access_token query parameter is accepted as a fallback.
func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if q := strings.TrimSpace(c.Query("access_token")); q != "" {
			return q, nil
		}
		return "", apperrors.NewNotAuthenticated("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewNotAuthenticated("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// PrincipalFromContext retrieves the resolved caller.
func PrincipalFromContext(c *fiber.Ctx) (domain.Principal, bool) {
	principal, ok := c.Locals(principalKey).(domain.Principal)
	return principal, ok
}

// SessionUID returns the account uid of an authenticated session.
func SessionUID(c *fiber.Ctx) (string, bool) {
	uid, ok := c.Locals(sessionKey).(string)
	return uid, ok && uid != ""
}
