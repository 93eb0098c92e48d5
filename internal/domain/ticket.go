package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "InProgress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// TicketStatuses lists statuses in display order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// TicketCategory classifies the kind of work a ticket tracks.
type TicketCategory string

const (
	TicketCategoryBug         TicketCategory = "Bug"
	TicketCategoryImprovement TicketCategory = "Improvement"
	TicketCategoryAccess      TicketCategory = "Access"
	TicketCategoryFeature     TicketCategory = "Feature"
)

// TicketCategories lists categories in display order.
var TicketCategories = []TicketCategory{
	TicketCategoryBug,
	TicketCategoryImprovement,
	TicketCategoryAccess,
	TicketCategoryFeature,
}

// Valid reports whether c is a known category.
func (c TicketCategory) Valid() bool {
	for _, candidate := range TicketCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// Ticket field limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// Ticket is a unit of trackable work.
type Ticket struct {
	ID               int64
	Title            string
	Description      string
	Status           TicketStatus
	UrgencyLevel     UrgencyLevel
	Category         TicketCategory
	CreatedByUserID  string
	AssignedToUserID *string
	CreatedAt        time.Time
	Version          int64
}

// ApplyDefaults fills the documented defaults for unset status and urgency.
func (t *Ticket) ApplyDefaults() {
	if t.Status == "" {
		t.Status = TicketStatusOpen
	}
	if t.UrgencyLevel == 0 {
		t.UrgencyLevel = DefaultUrgency
	}
}

// TicketDetails is the read-model of a ticket with its user references resolved.
type TicketDetails struct {
	Ticket
	CreatedBy  UserRef
	AssignedTo *UserRef
}

// Profile composes a user with the tickets they created and were assigned.
type Profile struct {
	User            UserRef
	CreatedTickets  []TicketDetails
	AssignedTickets []TicketDetails
}
