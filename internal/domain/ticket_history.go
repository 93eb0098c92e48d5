package domain

import (
	"fmt"
	"time"
)

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeCreated  TicketChangeType = "CREATED"
	ChangeTypeStatus   TicketChangeType = "STATUS_CHANGE"
	ChangeTypeUrgency  TicketChangeType = "URGENCY_CHANGE"
	ChangeTypeAssignee TicketChangeType = "ASSIGNEE_CHANGE"
)

// TicketHistory is an immutable audit trail entry. ChangedByID is nil when
// the actor is unknown or has since been deleted.
type TicketHistory struct {
	ID          int64
	TicketID    int64
	ChangedByID *string
	ChangeType  TicketChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}

// Describe renders the entry as one line for the ticket page.
func (h TicketHistory) Describe() string {
	switch h.ChangeType {
	case ChangeTypeCreated:
		return "Ticket created"
	case ChangeTypeStatus:
		return fmt.Sprintf("Status changed from %s to %s", historyValue(h.OldValue, "status"), historyValue(h.NewValue, "status"))
	case ChangeTypeUrgency:
		return fmt.Sprintf("Urgency changed from %s to %s", historyValue(h.OldValue, "label"), historyValue(h.NewValue, "label"))
	case ChangeTypeAssignee:
		return fmt.Sprintf("Assignee changed from %s to %s", historyValue(h.OldValue, "name"), historyValue(h.NewValue, "name"))
	}
	return string(h.ChangeType)
}

func historyValue(values map[string]any, key string) string {
	v, ok := values[key]
	if !ok || v == nil || v == "" {
		return "none"
	}
	return fmt.Sprint(v)
}
