package auth

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/config"
	"github.com/spec-kit/ticketdesk/internal/domain"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util"
)

const principalKey = "auth_principal"

// Paths the auth gates redirect to.
const (
	LoginPath        = "/users/login"
	AccessDeniedPath = "/users/access-denied"
)

// Principal represents the authenticated caller of the current request.
type Principal struct {
	User      *domain.User
	IsAdmin   bool
	SessionID string
}

// SessionResolver turns a session cookie value into its user. A nil user
// with a nil error means the session is absent, expired or revoked.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*domain.User, *domain.Session, error)
}

// SessionMiddleware loads principals from the session cookie and manages
// the cookie itself.
type SessionMiddleware struct {
	resolver SessionResolver
	cookie   config.SessionConfig
	logger   *zap.Logger
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(resolver SessionResolver, cookie config.SessionConfig, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{resolver: resolver, cookie: cookie, logger: logger}
}

// Handle attaches a Principal when the request carries a live session.
// Anonymous requests pass through untouched.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	token := c.Cookies(m.cookie.CookieName)
	if token == "" {
		return c.Next()
	}

	user, session, err := m.resolver.ResolveSession(c.UserContext(), token)
	if err != nil {
		m.logger.Error("resolve session", zap.Error(err))
		return apperrors.NewInternalError(err)
	}
	if user == nil || session == nil {
		m.ClearCookie(c)
		return c.Next()
	}

	c.Locals(principalKey, &Principal{
		User:      user,
		IsAdmin:   user.HasRole(domain.RoleAdmin),
		SessionID: session.ID,
	})
	return c.Next()
}

// SetCookie writes the session cookie. A non-persistent cookie ends with the
// browser session; the server-side session still expires at expiresAt.
func (m *SessionMiddleware) SetCookie(c *fiber.Ctx, token string, expiresAt time.Time, persistent bool) {
	c.Cookie(&fiber.Cookie{
		Name:        m.cookie.CookieName,
		Value:       token,
		Path:        "/",
		Expires:     expiresAt,
		Secure:      m.cookie.Secure,
		HTTPOnly:    true,
		SameSite:    fiber.CookieSameSiteLaxMode,
		SessionOnly: !persistent,
	})
}

// ClearCookie expires the session cookie on the client.
func (m *SessionMiddleware) ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cookie.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		Secure:   m.cookie.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}

// RequireSession sends anonymous callers to the login page, remembering
// where they were headed.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return c.Redirect(LoginRedirect(c.OriginalURL()), fiber.StatusFound)
		}
		return c.Next()
	}
}

// LoginRedirect builds the login URL carrying returnURL.
func LoginRedirect(returnURL string) string {
	if SafeReturnURL(returnURL) == "" {
		return LoginPath
	}
	return LoginPath + "?returnUrl=" + url.QueryEscape(returnURL)
}

// SafeReturnURL returns raw when it is a local path and "" otherwise.
func SafeReturnURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return ""
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	return raw
}
