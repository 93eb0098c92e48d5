package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/api/dto"
	"github.com/spec-kit/ticketdesk/internal/api/http/views"
	"github.com/spec-kit/ticketdesk/internal/service"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util"
)

const adminUsersPath = "/admin/users"

// AdminHandler serves account administration. Routes sit behind the Admin role.
type AdminHandler struct {
	auth   *service.AuthService
	views  *views.Renderer
	logger *zap.Logger
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService, renderer *views.Renderer, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{auth: authService, views: renderer, logger: logger}
}

// Users GET /admin/users.
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	return h.renderUsers(c, fiber.StatusOK, c.Query("message"))
}

// DeleteUser POST /admin/users/:id/delete.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if id == principal.User.ID {
		return h.renderUsers(c, fiber.StatusConflict, "You cannot delete your own account.")
	}

	err = h.auth.DeleteUser(service.WithActor(c.UserContext(), principal.User.ID), id)
	switch {
	case err == nil:
		h.logger.Info("admin deleted user", zap.String("admin_id", principal.User.ID), zap.String("user_id", id))
		return c.Redirect(adminUsersPath, fiber.StatusFound)
	case errors.Is(err, service.ErrUserNotFound):
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	case errors.Is(err, service.ErrUserHasTickets):
		return h.renderUsers(c, fiber.StatusConflict, "This user created tickets and cannot be deleted.")
	}
	return err
}

func (h *AdminHandler) renderUsers(c *fiber.Ctx, status int, message string) error {
	users, err := h.auth.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return h.views.Render(c, status, views.PageAdminUsers, dto.UserAdminView{
		Layout:  LayoutFor(c, "Users"),
		Users:   users,
		Message: message,
	})
}
