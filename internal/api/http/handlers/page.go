package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketdesk/internal/api/dto"
	"github.com/spec-kit/ticketdesk/internal/auth"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util"
)

// CSRFContextKey is where the csrf middleware leaves the form token.
const CSRFContextKey = "csrf"

// LayoutFor builds the page shell for the current request.
func LayoutFor(c *fiber.Ctx, title string) dto.Layout {
	layout := dto.Layout{Title: title}
	if principal, ok := auth.PrincipalFromContext(c); ok {
		layout.CurrentUser = principal.User
		layout.IsAdmin = principal.IsAdmin
	}
	if token, ok := c.Locals(CSRFContextKey).(string); ok {
		layout.CSRFToken = token
	}
	return layout
}

// currentPrincipal is only called behind RequireSession.
func currentPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func ticketIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound("ticket", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}
