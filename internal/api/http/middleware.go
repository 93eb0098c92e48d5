package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/api/dto"
	"github.com/spec-kit/ticketdesk/internal/api/http/handlers"
	"github.com/spec-kit/ticketdesk/internal/api/http/views"
	"github.com/spec-kit/ticketdesk/internal/observability"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util"
)

// RegisterMiddlewares attaches global middlewares. The request logger wraps
// the error handler so it sees the final status.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, renderer *views.Renderer, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics, renderer))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, renderer *views.Renderer) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
				}
				if strings.HasPrefix(c.Path(), "/health") {
					err = writeJSONError(c, domainErr)
					return
				}
				err = renderError(c, renderer, domainErr)
				if err != nil {
					logger.Error("render error page", zap.Error(err))
					err = c.Status(domainErr.HTTPStatus).SendString(http.StatusText(domainErr.HTTPStatus))
				}
			}
		}()
		return c.Next()
	}
}

func writeJSONError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}

func renderError(c *fiber.Ctx, renderer *views.Renderer, domainErr *apperrors.DomainError) error {
	view := dto.ErrorView{
		Layout:  handlers.LayoutFor(c, errorTitle(domainErr.HTTPStatus)),
		Status:  domainErr.HTTPStatus,
		Code:    domainErr.Code,
		Message: errorMessage(domainErr),
	}
	return renderer.Render(c, domainErr.HTTPStatus, views.PageError, view)
}

func errorTitle(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Not found"
	case http.StatusConflict:
		return "Edit conflict"
	case http.StatusForbidden:
		return "Forbidden"
	}
	if status >= 500 {
		return "Something went wrong"
	}
	return http.StatusText(status)
}

// errorMessage hides internal details from the page.
func errorMessage(domainErr *apperrors.DomainError) string {
	switch {
	case domainErr.HTTPStatus >= 500:
		return "An unexpected error occurred. Please try again later."
	case domainErr.HTTPStatus == http.StatusNotFound:
		return "The page or ticket you are looking for does not exist."
	}
	return domainErr.Message
}
