package views

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticketdesk/internal/api/dto"
	"github.com/spec-kit/ticketdesk/internal/domain"
)

func TestEveryPageParses(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	for _, page := range []string{
		PageTicketIndex, PageTicketDetail, PageTicketForm, PageTicketDelete,
		PageProfile, PageLogin, PageRegister, PageAdminUsers, PageError,
	} {
		assert.Contains(t, r.pages, page)
	}
}

func TestRenderTicketIndexEscapesAndBadges(t *testing.T) {
	r := MustNew()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return r.Render(c, fiber.StatusOK, PageTicketIndex, dto.TicketListView{
			Layout: dto.Layout{Title: "Tickets", CurrentUser: &domain.User{ID: "u1", FullName: "Dev One"}},
			Tickets: []domain.TicketDetails{{
				Ticket: domain.Ticket{
					ID:           7,
					Title:        "<script>x</script>",
					Status:       domain.TicketStatusOpen,
					UrgencyLevel: domain.UrgencyCritical,
					Category:     domain.TicketCategoryBug,
					CreatedAt:    time.Now(),
				},
				CreatedBy: domain.UserRef{ID: "u1", FullName: "Dev One"},
			}},
		})
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, "&lt;script&gt;x&lt;/script&gt;")
	assert.Contains(t, html, domain.UrgencyCritical.CSSClass())
	assert.Contains(t, html, "/tickets/7/edit")
	assert.NotContains(t, html, "/tickets/7/delete")
}

func TestRenderUnknownPage(t *testing.T) {
	r := MustNew()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return r.Render(c, fiber.StatusOK, "missing", nil)
	})
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
