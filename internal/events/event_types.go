package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketUpdated  EventType = "ticket_updated"
	EventTicketAssigned EventType = "ticket_assigned"
	EventTicketDeleted  EventType = "ticket_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps a fresh id on an event.
func NewEvent(eventType EventType, ticketID int64, actorID string, at time.Time, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		ActorID:   actorID,
		Timestamp: at,
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title        string                `json:"title"`
	Category     domain.TicketCategory `json:"category"`
	UrgencyLevel domain.UrgencyLevel   `json:"urgency_level"`
	AssigneeID   *string               `json:"assignee_id,omitempty"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	OldStatus  domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus `json:"new_status"`
	OldUrgency domain.UrgencyLevel `json:"old_urgency"`
	NewUrgency domain.UrgencyLevel `json:"new_urgency"`
	Version    int64               `json:"version"`
}

// TicketAssignedPayload payload. PreviousAssigneeName is set when the
// previous assignee no longer exists.
type TicketAssignedPayload struct {
	PreviousAssigneeID   *string `json:"previous_assignee_id,omitempty"`
	PreviousAssigneeName string  `json:"previous_assignee_name,omitempty"`
	AssigneeID           *string `json:"assignee_id,omitempty"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Title string `json:"title"`
}
