package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

// RequireRole ensures the caller holds role. Anonymous callers go to login,
// authenticated callers without the role to the access-denied page.
func RequireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return c.Redirect(LoginRedirect(c.OriginalURL()), fiber.StatusFound)
		}
		if !principal.User.HasRole(role) {
			return c.Redirect(AccessDeniedPath, fiber.StatusFound)
		}
		return c.Next()
	}
}
