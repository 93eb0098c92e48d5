package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/api/dto"
	"github.com/spec-kit/ticketdesk/internal/api/http/views"
	"github.com/spec-kit/ticketdesk/internal/auth"
	"github.com/spec-kit/ticketdesk/internal/service"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util"
)

// UsersHandler serves login, registration and profile pages.
type UsersHandler struct {
	auth      *service.AuthService
	tickets   *service.TicketService
	sessions  *auth.SessionMiddleware
	validator *dto.Validator
	views     *views.Renderer
	logger    *zap.Logger
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, tickets *service.TicketService, sessions *auth.SessionMiddleware, validator *dto.Validator, renderer *views.Renderer, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		auth:      authService,
		tickets:   tickets,
		sessions:  sessions,
		validator: validator,
		views:     renderer,
		logger:    logger,
	}
}

// LoginForm GET /users/login.
func (h *UsersHandler) LoginForm(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); ok {
		return c.Redirect(ticketsPath, fiber.StatusFound)
	}
	form := dto.LoginForm{ReturnURL: auth.SafeReturnURL(c.Query("returnUrl"))}
	return h.renderLogin(c, form, nil, "")
}

// Login POST /users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var form dto.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form payload", nil)
	}
	form.Normalize()
	form.ReturnURL = auth.SafeReturnURL(form.ReturnURL)
	if errs := h.validator.Struct(&form); errs != nil {
		return h.renderLogin(c, form, errs, "")
	}

	user, session, err := h.auth.Login(c.UserContext(), form.Email, form.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.logger.Info("login rejected", zap.String("email", form.Email))
		return h.renderLogin(c, form, nil, "Invalid email or password.")
	}
	if err != nil {
		return err
	}

	h.sessions.SetCookie(c, session.Token, session.ExpiresAt, form.RememberMe)
	h.logger.Info("user logged in", zap.String("user_id", user.ID))
	return c.Redirect(landingPath(form.ReturnURL), fiber.StatusFound)
}

// RegisterForm GET /users/register.
func (h *UsersHandler) RegisterForm(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); ok {
		return c.Redirect(ticketsPath, fiber.StatusFound)
	}
	form := dto.RegisterForm{ReturnURL: auth.SafeReturnURL(c.Query("returnUrl"))}
	return h.renderRegister(c, form, nil, "")
}

// Register POST /users/register. New accounts are signed in straight away.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var form dto.RegisterForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form payload", nil)
	}
	form.Normalize()
	form.ReturnURL = auth.SafeReturnURL(form.ReturnURL)
	if errs := h.validator.Struct(&form); errs != nil {
		form.ClearSecrets()
		return h.renderRegister(c, form, errs, "")
	}

	_, session, err := h.auth.Register(c.UserContext(), form.FullName, form.Email, form.Password)
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		form.ClearSecrets()
		return h.renderRegister(c, form, dto.FieldErrors{"email": "An account with this email already exists"}, "")
	case errors.Is(err, service.ErrWeakPassword):
		form.ClearSecrets()
		return h.renderRegister(c, form, dto.FieldErrors{"password": "Password does not meet the requirements"}, "")
	case err != nil:
		return err
	}

	h.sessions.SetCookie(c, session.Token, session.ExpiresAt, false)
	return c.Redirect(landingPath(form.ReturnURL), fiber.StatusFound)
}

// Logout POST /users/logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	if principal, ok := auth.PrincipalFromContext(c); ok {
		if err := h.auth.Logout(c.UserContext(), principal.SessionID); err != nil {
			h.logger.Warn("revoke session", zap.String("session_id", principal.SessionID), zap.Error(err))
		}
	}
	h.sessions.ClearCookie(c)
	return c.Redirect(auth.LoginPath, fiber.StatusFound)
}

// Profile GET /users/profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	profile, err := h.tickets.Profile(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	if profile == nil {
		return apperrors.NewNotFound("user", nil)
	}
	return h.views.Render(c, fiber.StatusOK, views.PageProfile, dto.ProfileView{
		Layout:  LayoutFor(c, "Profile"),
		Profile: *profile,
	})
}

// AccessDenied GET /users/access-denied.
func (h *UsersHandler) AccessDenied(c *fiber.Ctx) error {
	return h.views.Render(c, fiber.StatusForbidden, views.PageError, dto.ErrorView{
		Layout:  LayoutFor(c, "Access denied"),
		Status:  fiber.StatusForbidden,
		Code:    apperrors.CodeForbidden,
		Message: "You do not have permission to view this page.",
	})
}

func (h *UsersHandler) renderLogin(c *fiber.Ctx, form dto.LoginForm, errs dto.FieldErrors, message string) error {
	form.Password = ""
	return h.views.Render(c, fiber.StatusOK, views.PageLogin, dto.LoginView{
		Layout:  LayoutFor(c, "Log in"),
		Form:    form,
		Errors:  errs,
		Message: message,
	})
}

func (h *UsersHandler) renderRegister(c *fiber.Ctx, form dto.RegisterForm, errs dto.FieldErrors, message string) error {
	return h.views.Render(c, fiber.StatusOK, views.PageRegister, dto.RegisterView{
		Layout:  LayoutFor(c, "Register"),
		Form:    form,
		Errors:  errs,
		Message: message,
	})
}

func landingPath(returnURL string) string {
	if returnURL == "" {
		return ticketsPath
	}
	return returnURL
}
