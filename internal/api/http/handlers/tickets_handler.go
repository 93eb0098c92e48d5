package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/api/dto"
	"github.com/spec-kit/ticketdesk/internal/api/http/views"
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/service"
	apperrors "github.com/spec-kit/ticketdesk/pkg/util"
)

const ticketsPath = "/tickets"

// TicketsHandler serves the ticket pages.
type TicketsHandler struct {
	tickets   *service.TicketService
	history   *service.HistoryService
	validator *dto.Validator
	views     *views.Renderer
	logger    *zap.Logger
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, history *service.HistoryService, validator *dto.Validator, renderer *views.Renderer, logger *zap.Logger) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, history: history, validator: validator, views: renderer, logger: logger}
}

// Index GET /tickets.
func (h *TicketsHandler) Index(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return h.views.Render(c, fiber.StatusOK, views.PageTicketIndex, dto.TicketListView{
		Layout:  LayoutFor(c, "Tickets"),
		Tickets: tickets,
	})
}

// Details GET /tickets/:id.
func (h *TicketsHandler) Details(c *fiber.Ctx) error {
	view, err := h.detailView(c, "Ticket")
	if err != nil {
		return err
	}
	if h.history != nil {
		if view.History, err = h.history.ListForTicket(c.UserContext(), view.Ticket.ID); err != nil {
			return err
		}
	}
	return h.views.Render(c, fiber.StatusOK, views.PageTicketDetail, view)
}

// ConfirmDelete GET /tickets/:id/delete.
func (h *TicketsHandler) ConfirmDelete(c *fiber.Ctx) error {
	view, err := h.detailView(c, "Delete ticket")
	if err != nil {
		return err
	}
	return h.views.Render(c, fiber.StatusOK, views.PageTicketDelete, view)
}

func (h *TicketsHandler) detailView(c *fiber.Ctx, title string) (dto.TicketDetailView, error) {
	id, err := ticketIDParam(c)
	if err != nil {
		return dto.TicketDetailView{}, err
	}
	ticket, err := h.tickets.GetWithDetails(c.UserContext(), id)
	if err != nil {
		return dto.TicketDetailView{}, err
	}
	if ticket == nil {
		return dto.TicketDetailView{}, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return dto.TicketDetailView{Layout: LayoutFor(c, title), Ticket: *ticket}, nil
}

// NewForm GET /tickets/create.
func (h *TicketsHandler) NewForm(c *fiber.Ctx) error {
	form := dto.TicketForm{}
	form.Normalize()
	return h.renderForm(c, 0, form, nil, "")
}

// Create POST /tickets/create. The creator is always the session user.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var form dto.TicketForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form payload", nil)
	}
	form.Normalize()
	if errs := h.validator.Struct(&form); errs != nil {
		return h.renderForm(c, 0, form, errs, "")
	}

	ticket := form.ToTicket(0)
	if err := h.tickets.Create(c.UserContext(), ticket, principal.User.ID); err != nil {
		errs, message := formFailure(err, "Unable to create the ticket. Please try again.")
		return h.renderForm(c, 0, form, errs, message)
	}
	return c.Redirect(ticketsPath, fiber.StatusFound)
}

// EditForm GET /tickets/:id/edit.
func (h *TicketsHandler) EditForm(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if ticket == nil {
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return h.renderForm(c, id, dto.TicketFormFrom(ticket), nil, "")
}

// Edit POST /tickets/:id/edit.
func (h *TicketsHandler) Edit(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var form dto.TicketForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form payload", nil)
	}
	if bodyID, err := strconv.ParseInt(form.ID, 10, 64); err != nil || bodyID != id {
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	form.Normalize()
	if errs := h.validator.Struct(&form); errs != nil {
		return h.renderForm(c, id, form, errs, "")
	}

	ctx := service.WithActor(c.UserContext(), principal.User.ID)
	err = h.tickets.Update(ctx, form.ToTicket(id))
	switch {
	case err == nil:
		return c.Redirect(ticketsPath, fiber.StatusFound)
	case errors.Is(err, service.ErrTicketNotFound):
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	case errors.Is(err, service.ErrTicketConflict):
		return apperrors.NewConflict("This ticket was changed by someone else after you opened it. Reload it and apply your changes again.", err)
	}
	errs, message := formFailure(err, "Unable to save the ticket. Please try again.")
	return h.renderForm(c, id, form, errs, message)
}

// Delete POST /tickets/:id/delete. Deleted and already-gone both land on the list.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := ticketIDParam(c)
	if err != nil {
		return c.Redirect(ticketsPath, fiber.StatusFound)
	}
	ctx := service.WithActor(c.UserContext(), principal.User.ID)
	if err := h.tickets.Delete(ctx, id); err != nil {
		h.logger.Warn("delete ticket", zap.Int64("ticket_id", id), zap.Error(err))
	}
	return c.Redirect(ticketsPath, fiber.StatusFound)
}

func (h *TicketsHandler) renderForm(c *fiber.Ctx, id int64, form dto.TicketForm, errs dto.FieldErrors, message string) error {
	assignees, err := h.tickets.AssigneeChoices(c.UserContext(), form.SelectedAssignee())
	if err != nil {
		return err
	}
	view := dto.TicketFormView{
		Layout:     LayoutFor(c, "Create ticket"),
		Action:     ticketsPath + "/create",
		Form:       form,
		Errors:     errs,
		Message:    message,
		Statuses:   h.tickets.StatusChoices(domain.TicketStatus(form.Status)),
		Categories: h.tickets.CategoryChoices(domain.TicketCategory(form.Category)),
		Urgencies:  h.tickets.UrgencyChoices(form.SelectedUrgency()),
		Assignees:  assignees,
	}
	if id > 0 {
		view.Title = "Edit ticket"
		view.Action = fmt.Sprintf("%s/%d/edit", ticketsPath, id)
		view.IsEdit = true
	}
	return h.views.Render(c, fiber.StatusOK, views.PageTicketForm, view)
}

// formFailure turns a service error into inline form feedback.
func formFailure(err error, fallback string) (dto.FieldErrors, string) {
	switch {
	case errors.Is(err, service.ErrAssigneeNotFound):
		return dto.FieldErrors{"assignedToUserId": "The selected user no longer exists"}, ""
	case errors.Is(err, service.ErrInvalidTicket):
		return dto.FieldErrors{"": err.Error()}, ""
	}
	return nil, fallback
}
