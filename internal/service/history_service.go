package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/events"
	"github.com/spec-kit/ticketdesk/internal/repository"
)

// HistoryService keeps the per-ticket audit trail. Entries are written from
// ticket events, so a failed write never fails the ticket operation itself.
type HistoryService struct {
	history    repository.TicketHistoryRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// HistoryDependencies bundles repositories.
type HistoryDependencies struct {
	HistoryRepo repository.TicketHistoryRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewHistoryService creates the service.
func NewHistoryService(deps HistoryDependencies) *HistoryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to ticket events.
func (s *HistoryService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventTicketCreated, s.handleTicketCreated)
	s.dispatcher.Subscribe(events.EventTicketUpdated, s.handleTicketUpdated)
	s.dispatcher.Subscribe(events.EventTicketAssigned, s.handleTicketAssigned)
}

// ListForTicket returns the trail oldest first.
func (s *HistoryService) ListForTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		s.logger.Error("list ticket history", zap.Int64("ticket_id", ticketID), zap.Error(err))
		return nil, fmt.Errorf("%w: list history", ErrTicketPersistence)
	}
	return entries, nil
}

func (s *HistoryService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	return s.record(ctx, event, domain.ChangeTypeCreated, nil, map[string]any{
		"title":    payload.Title,
		"category": string(payload.Category),
		"urgency":  int(payload.UrgencyLevel),
	})
}

func (s *HistoryService) handleTicketUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketUpdatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	if payload.OldStatus != payload.NewStatus {
		if err := s.record(ctx, event, domain.ChangeTypeStatus,
			map[string]any{"status": string(payload.OldStatus)},
			map[string]any{"status": string(payload.NewStatus)},
		); err != nil {
			return err
		}
	}
	if payload.OldUrgency != payload.NewUrgency {
		return s.record(ctx, event, domain.ChangeTypeUrgency,
			map[string]any{"urgency": int(payload.OldUrgency), "label": payload.OldUrgency.Label()},
			map[string]any{"urgency": int(payload.NewUrgency), "label": payload.NewUrgency.Label()},
		)
	}
	return nil
}

func (s *HistoryService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	previous := s.assigneeValue(ctx, payload.PreviousAssigneeID)
	if payload.PreviousAssigneeID != nil && payload.PreviousAssigneeName != "" {
		previous["name"] = payload.PreviousAssigneeName
	}
	return s.record(ctx, event, domain.ChangeTypeAssignee,
		previous,
		s.assigneeValue(ctx, payload.AssigneeID),
	)
}

func (s *HistoryService) record(ctx context.Context, event events.Event, change domain.TicketChangeType, oldValue, newValue map[string]any) error {
	entry := &domain.TicketHistory{
		TicketID:   event.TicketID,
		ChangeType: change,
		OldValue:   oldValue,
		NewValue:   newValue,
		CreatedAt:  event.Timestamp,
	}
	if event.ActorID != "" {
		actor := event.ActorID
		entry.ChangedByID = &actor
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return fmt.Errorf("record %s for ticket %d: %w", change, event.TicketID, err)
	}
	return nil
}

// assigneeValue snapshots the display name so the entry reads the same after
// the user is renamed or removed.
func (s *HistoryService) assigneeValue(ctx context.Context, id *string) map[string]any {
	if id == nil {
		return map[string]any{"assignee_id": nil, "name": ""}
	}
	name := *id
	if user, err := s.users.GetByID(ctx, *id); err == nil {
		name = user.FullName
	}
	return map[string]any{"assignee_id": *id, "name": name}
}
