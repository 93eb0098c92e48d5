package dto

import (
	"strconv"
	"strings"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

// TicketForm is the create/edit form payload. Every field is kept as the
// submitted string so invalid input can be redisplayed verbatim.
type TicketForm struct {
	ID               string `form:"id"`
	Version          string `form:"version"`
	Title            string `form:"title" validate:"required,max=200"`
	Description      string `form:"description" validate:"max=2000"`
	Status           string `form:"status" validate:"oneof=Open InProgress Resolved Closed"`
	UrgencyLevel     string `form:"urgencyLevel" validate:"oneof=1 2 3 4 5"`
	Category         string `form:"category" validate:"required,oneof=Bug Improvement Access Feature"`
	AssignedToUserID string `form:"assignedToUserId"`
	// CreatedByUserID is accepted but never trusted; the session user wins.
	CreatedByUserID string `form:"createdByUserId"`
}

// Normalize trims the title and fills the status and urgency defaults.
func (f *TicketForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Status = strings.TrimSpace(f.Status)
	f.UrgencyLevel = strings.TrimSpace(f.UrgencyLevel)
	f.Category = strings.TrimSpace(f.Category)
	if f.Status == "" {
		f.Status = string(domain.TicketStatusOpen)
	}
	if f.UrgencyLevel == "" {
		f.UrgencyLevel = domain.DefaultUrgency.String()
	}
}

// ToTicket converts a validated form. id is the ticket being edited, zero on create.
func (f *TicketForm) ToTicket(id int64) *domain.Ticket {
	urgency, _ := strconv.Atoi(f.UrgencyLevel)
	version, _ := strconv.ParseInt(f.Version, 10, 64)
	ticket := &domain.Ticket{
		ID:           id,
		Title:        f.Title,
		Description:  f.Description,
		Status:       domain.TicketStatus(f.Status),
		UrgencyLevel: domain.UrgencyLevel(urgency),
		Category:     domain.TicketCategory(f.Category),
		Version:      version,
	}
	if assignee := strings.TrimSpace(f.AssignedToUserID); assignee != "" {
		ticket.AssignedToUserID = &assignee
	}
	return ticket
}

// TicketFormFrom prefills a form from a stored ticket.
func TicketFormFrom(ticket *domain.Ticket) TicketForm {
	form := TicketForm{
		ID:              strconv.FormatInt(ticket.ID, 10),
		Version:         strconv.FormatInt(ticket.Version, 10),
		Title:           ticket.Title,
		Description:     ticket.Description,
		Status:          string(ticket.Status),
		UrgencyLevel:    ticket.UrgencyLevel.String(),
		Category:        string(ticket.Category),
		CreatedByUserID: ticket.CreatedByUserID,
	}
	if ticket.AssignedToUserID != nil {
		form.AssignedToUserID = *ticket.AssignedToUserID
	}
	return form
}

// SelectedUrgency parses the form urgency, zero when invalid.
func (f *TicketForm) SelectedUrgency() domain.UrgencyLevel {
	urgency, err := strconv.Atoi(f.UrgencyLevel)
	if err != nil {
		return 0
	}
	return domain.UrgencyLevel(urgency)
}

// SelectedAssignee returns the chosen assignee id or nil.
func (f *TicketForm) SelectedAssignee() *string {
	if f.AssignedToUserID == "" {
		return nil
	}
	id := f.AssignedToUserID
	return &id
}
