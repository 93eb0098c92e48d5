package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/spec-kit/ticketdesk/internal/api/http/handlers"
	"github.com/spec-kit/ticketdesk/internal/auth"
	"github.com/spec-kit/ticketdesk/internal/domain"
)

// CSRFCookieName is the cookie carrying the csrf token.
const CSRFCookieName = "ticketdesk_csrf"

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Tickets  *handlers.TicketsHandler
	Users    *handlers.UsersHandler
	Admin    *handlers.AdminHandler
	Sessions *auth.SessionMiddleware
	CSRF     bool
	// SecureCookies marks the csrf cookie Secure.
	SecureCookies bool
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	protect := csrfProtection(cfg)
	pages := app.Group("", cfg.Sessions.Handle)

	pages.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/tickets", fiber.StatusFound)
	})

	users := pages.Group("/users", protect)
	users.Get("/login", cfg.Users.LoginForm)
	users.Post("/login", cfg.Users.Login)
	users.Get("/register", cfg.Users.RegisterForm)
	users.Post("/register", cfg.Users.Register)
	users.Post("/logout", cfg.Users.Logout)
	users.Get("/access-denied", cfg.Users.AccessDenied)
	users.Get("/profile", auth.RequireSession(), cfg.Users.Profile)

	// Gates run before csrf so anonymous callers are sent to login.
	tickets := pages.Group("/tickets", auth.RequireSession(), protect)
	tickets.Get("", cfg.Tickets.Index)
	tickets.Get("/create", cfg.Tickets.NewForm)
	tickets.Post("/create", cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Details)
	tickets.Get("/:id/edit", cfg.Tickets.EditForm)
	tickets.Post("/:id/edit", cfg.Tickets.Edit)
	tickets.Get("/:id/delete", cfg.Tickets.ConfirmDelete)
	tickets.Post("/:id/delete", cfg.Tickets.Delete)

	admin := pages.Group("/admin", auth.RequireRole(domain.RoleAdmin), protect)
	admin.Get("/users", cfg.Admin.Users)
	admin.Post("/users/:id/delete", cfg.Admin.DeleteUser)
}

func csrfProtection(cfg RouteConfig) fiber.Handler {
	if !cfg.CSRF {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return csrf.New(csrf.Config{
		KeyLookup:      "form:_csrf",
		CookieName:     CSRFCookieName,
		CookieSameSite: "Lax",
		CookieSecure:   cfg.SecureCookies,
		CookieHTTPOnly: true,
		Expiration:     2 * time.Hour,
		ContextKey:     handlers.CSRFContextKey,
	})
}
