package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/config"
	"github.com/spec-kit/ticketdesk/internal/domain"
)

type stubResolver struct {
	users map[string]*domain.User
	err   error
}

func (s stubResolver) ResolveSession(_ context.Context, token string) (*domain.User, *domain.Session, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	user, ok := s.users[token]
	if !ok {
		return nil, nil, nil
	}
	return user, &domain.Session{ID: "sid-" + token, UserID: user.ID}, nil
}

func newGatedApp(resolver SessionResolver) *fiber.App {
	mw := NewSessionMiddleware(resolver, config.SessionConfig{CookieName: "sid"}, zap.NewNop())
	app := fiber.New()
	app.Use(mw.Handle)
	app.Get("/open", func(c *fiber.Ctx) error {
		if p, ok := PrincipalFromContext(c); ok {
			return c.SendString(p.User.FullName)
		}
		return c.SendString("anonymous")
	})
	app.Get("/private", RequireSession(), func(c *fiber.Ctx) error {
		return c.SendString("private")
	})
	app.Get("/admin", RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		if p, _ := PrincipalFromContext(c); !p.IsAdmin {
			return fiber.ErrForbidden
		}
		return c.SendString("admin")
	})
	return app
}

func request(t *testing.T, app *fiber.App, target, cookie string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, target, nil)
	if cookie != "" {
		req.Header.Set(fiber.HeaderCookie, "sid="+cookie)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get(fiber.HeaderLocation)
}

func TestSessionGates(t *testing.T) {
	app := newGatedApp(stubResolver{users: map[string]*domain.User{
		"dev":   {ID: "u1", FullName: "Dev", Roles: []domain.Role{domain.RoleUser}},
		"admin": {ID: "u2", FullName: "Boss", Roles: []domain.Role{domain.RoleAdmin}},
	}})

	status, location := request(t, app, "/private?x=1", "")
	assert.Equal(t, fiber.StatusFound, status)
	assert.Equal(t, "/users/login?returnUrl=%2Fprivate%3Fx%3D1", location)

	status, _ = request(t, app, "/private", "dev")
	assert.Equal(t, fiber.StatusOK, status)

	status, location = request(t, app, "/admin", "dev")
	assert.Equal(t, fiber.StatusFound, status)
	assert.Equal(t, AccessDeniedPath, location)

	status, location = request(t, app, "/admin", "")
	assert.Equal(t, fiber.StatusFound, status)
	assert.Equal(t, "/users/login?returnUrl=%2Fadmin", location)

	status, _ = request(t, app, "/admin", "admin")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = request(t, app, "/private", "revoked")
	assert.Equal(t, fiber.StatusFound, status)
}

func TestResolverFailureIsInternalError(t *testing.T) {
	app := newGatedApp(stubResolver{err: errors.New("redis down")})
	status, _ := request(t, app, "/open", "whatever")
	assert.Equal(t, fiber.StatusInternalServerError, status)

	status, _ = request(t, app, "/open", "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestSafeReturnURL(t *testing.T) {
	cases := map[string]string{
		"":                    "",
		"/tickets/3":          "/tickets/3",
		"/users/profile?a=b":  "/users/profile?a=b",
		"https://example.com": "",
		"//example.com":       "",
		"/\\example.com":      "",
		"tickets":             "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, SafeReturnURL(raw), raw)
	}
	assert.Equal(t, LoginPath, LoginRedirect("https://example.com"))
}
