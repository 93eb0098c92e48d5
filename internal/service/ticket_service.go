package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/events"
	"github.com/spec-kit/ticketdesk/internal/repository"
)

// TicketService coordinates ticket workflows. Storage faults never leave it
// raw: they surface as ErrTicketPersistence.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// Clock overrides time.Now; used by tests to pin creation times.
	Clock func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// ListAll returns every ticket newest first with creator and assignee resolved.
func (s *TicketService) ListAll(ctx context.Context) ([]domain.TicketDetails, error) {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, s.persistenceError("list tickets", err)
	}
	return tickets, nil
}

// Get returns the ticket or nil when it does not exist.
func (s *TicketService) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.persistenceError("get ticket", err, zap.Int64("ticket_id", id))
	}
	return ticket, nil
}

// GetWithDetails is Get with creator and assignee resolved.
func (s *TicketService) GetWithDetails(ctx context.Context, id int64) (*domain.TicketDetails, error) {
	details, err := s.tickets.GetDetails(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.persistenceError("get ticket details", err, zap.Int64("ticket_id", id))
	}
	return details, nil
}

// Create persists a new ticket owned by creatorID. Any creator or timestamp
// already on ticket is overwritten.
func (s *TicketService) Create(ctx context.Context, ticket *domain.Ticket, creatorID string) error {
	if strings.TrimSpace(creatorID) == "" {
		return fmt.Errorf("%w: creator is required", ErrInvalidTicket)
	}
	ticket.CreatedByUserID = creatorID
	ticket.CreatedAt = s.now().UTC()
	ticket.AssignedToUserID = normalizeAssignee(ticket.AssignedToUserID)
	ticket.ApplyDefaults()

	if err := validateTicket(ticket); err != nil {
		return err
	}
	if err := s.ensureAssignee(ctx, ticket.AssignedToUserID); err != nil {
		return err
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return s.persistenceError("create ticket", err)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventTicketCreated, ticket.ID, creatorID, ticket.CreatedAt,
		events.TicketCreatedPayload{
			Title:        ticket.Title,
			Category:     ticket.Category,
			UrgencyLevel: ticket.UrgencyLevel,
			AssigneeID:   ticket.AssignedToUserID,
		}))
	if ticket.AssignedToUserID != nil {
		s.publishEvent(ctx, events.NewEvent(events.EventTicketAssigned, ticket.ID, creatorID, ticket.CreatedAt,
			events.TicketAssignedPayload{AssigneeID: ticket.AssignedToUserID}))
	}
	return nil
}

// Update writes the editable fields of ticket. Creator and creation time are
// taken from the stored row. A zero Version means "whatever is stored".
// ErrTicketNotFound when the ticket is gone, ErrTicketConflict when another
// write landed first.
func (s *TicketService) Update(ctx context.Context, ticket *domain.Ticket) error {
	ticket.AssignedToUserID = normalizeAssignee(ticket.AssignedToUserID)
	ticket.ApplyDefaults()
	if err := validateTicket(ticket); err != nil {
		return err
	}

	stored, err := s.tickets.GetByID(ctx, ticket.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTicketNotFound
	}
	if err != nil {
		return s.persistenceError("load ticket for update", err, zap.Int64("ticket_id", ticket.ID))
	}
	ticket.CreatedByUserID = stored.CreatedByUserID
	ticket.CreatedAt = stored.CreatedAt
	if ticket.Version == 0 {
		ticket.Version = stored.Version
	}

	if err := s.ensureAssignee(ctx, ticket.AssignedToUserID); err != nil {
		return err
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrVersionMismatch) {
			return s.resolveMismatch(ctx, ticket.ID)
		}
		return s.persistenceError("update ticket", err, zap.Int64("ticket_id", ticket.ID))
	}

	at := s.now().UTC()
	actor := ActorFromContext(ctx)
	s.publishEvent(ctx, events.NewEvent(events.EventTicketUpdated, ticket.ID, actor, at,
		events.TicketUpdatedPayload{
			OldStatus:  stored.Status,
			NewStatus:  ticket.Status,
			OldUrgency: stored.UrgencyLevel,
			NewUrgency: ticket.UrgencyLevel,
			Version:    ticket.Version,
		}))
	if !sameAssignee(stored.AssignedToUserID, ticket.AssignedToUserID) {
		s.publishEvent(ctx, events.NewEvent(events.EventTicketAssigned, ticket.ID, actor, at,
			events.TicketAssignedPayload{
				PreviousAssigneeID: stored.AssignedToUserID,
				AssigneeID:         ticket.AssignedToUserID,
			}))
	}
	return nil
}

// resolveMismatch tells a vanished ticket apart from a lost race.
func (s *TicketService) resolveMismatch(ctx context.Context, id int64) error {
	exists, err := s.tickets.Exists(ctx, id)
	if err != nil {
		return s.persistenceError("recheck ticket", err, zap.Int64("ticket_id", id))
	}
	if !exists {
		return ErrTicketNotFound
	}
	s.logger.Warn("ticket update conflict", zap.Int64("ticket_id", id))
	return ErrTicketConflict
}

// Delete removes the ticket. ErrTicketNotFound when it does not exist.
func (s *TicketService) Delete(ctx context.Context, id int64) error {
	stored, err := s.tickets.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTicketNotFound
	}
	if err != nil {
		return s.persistenceError("load ticket for delete", err, zap.Int64("ticket_id", id))
	}

	if err := s.tickets.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTicketNotFound
		}
		return s.persistenceError("delete ticket", err, zap.Int64("ticket_id", id))
	}

	s.publishEvent(ctx, events.NewEvent(events.EventTicketDeleted, id, ActorFromContext(ctx), s.now().UTC(),
		events.TicketDeletedPayload{Title: stored.Title}))
	return nil
}

// Exists reports whether a ticket with id is stored.
func (s *TicketService) Exists(ctx context.Context, id int64) (bool, error) {
	exists, err := s.tickets.Exists(ctx, id)
	if err != nil {
		return false, s.persistenceError("ticket exists", err, zap.Int64("ticket_id", id))
	}
	return exists, nil
}

// ListCreatedBy returns the tickets userID created, newest first.
func (s *TicketService) ListCreatedBy(ctx context.Context, userID string) ([]domain.TicketDetails, error) {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{CreatedByUserID: &userID})
	if err != nil {
		return nil, s.persistenceError("list created tickets", err, zap.String("user_id", userID))
	}
	return tickets, nil
}

// ListAssignedTo returns the tickets assigned to userID, newest first.
func (s *TicketService) ListAssignedTo(ctx context.Context, userID string) ([]domain.TicketDetails, error) {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{AssignedToUserID: &userID})
	if err != nil {
		return nil, s.persistenceError("list assigned tickets", err, zap.String("user_id", userID))
	}
	return tickets, nil
}

// Profile composes the user with both of their ticket listings. Nil when
// the user does not exist.
func (s *TicketService) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.persistenceError("load profile user", err, zap.String("user_id", userID))
	}
	created, err := s.ListCreatedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	assigned, err := s.ListAssignedTo(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{
		User:            user.Ref(),
		CreatedTickets:  created,
		AssignedTickets: assigned,
	}, nil
}

// StatusChoices lists statuses in display order.
func (s *TicketService) StatusChoices(selected domain.TicketStatus) []domain.Choice {
	choices := make([]domain.Choice, 0, len(domain.TicketStatuses))
	for _, status := range domain.TicketStatuses {
		choices = append(choices, domain.Choice{
			Value:    string(status),
			Label:    string(status),
			Selected: status == selected,
		})
	}
	return choices
}

// CategoryChoices lists categories in display order.
func (s *TicketService) CategoryChoices(selected domain.TicketCategory) []domain.Choice {
	choices := make([]domain.Choice, 0, len(domain.TicketCategories))
	for _, category := range domain.TicketCategories {
		choices = append(choices, domain.Choice{
			Value:    string(category),
			Label:    string(category),
			Selected: category == selected,
		})
	}
	return choices
}

// UrgencyChoices lists urgency levels from low to critical.
func (s *TicketService) UrgencyChoices(selected domain.UrgencyLevel) []domain.Choice {
	choices := make([]domain.Choice, 0, len(domain.UrgencyLevels))
	for _, level := range domain.UrgencyLevels {
		choices = append(choices, domain.Choice{
			Value:    strconv.Itoa(int(level)),
			Label:    level.Label(),
			Selected: level == selected,
		})
	}
	return choices
}

// AssigneeChoices lists every user by display name.
func (s *TicketService) AssigneeChoices(ctx context.Context, selected *string) ([]domain.Choice, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, s.persistenceError("list assignees", err)
	}
	choices := make([]domain.Choice, 0, len(users))
	for _, user := range users {
		choices = append(choices, domain.Choice{
			Value:    user.ID,
			Label:    user.FullName,
			Selected: selected != nil && *selected == user.ID,
		})
	}
	return choices, nil
}

func (s *TicketService) ensureAssignee(ctx context.Context, assigneeID *string) error {
	if assigneeID == nil {
		return nil
	}
	exists, err := s.users.Exists(ctx, *assigneeID)
	if err != nil {
		return s.persistenceError("check assignee", err, zap.String("assignee_id", *assigneeID))
	}
	if !exists {
		return ErrAssigneeNotFound
	}
	return nil
}

func (s *TicketService) persistenceError(op string, err error, fields ...zap.Field) error {
	s.logger.Error(op, append(fields, zap.Error(err))...)
	return fmt.Errorf("%w: %s", ErrTicketPersistence, op)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func validateTicket(ticket *domain.Ticket) error {
	switch {
	case strings.TrimSpace(ticket.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidTicket)
	case utf8.RuneCountInString(ticket.Title) > domain.MaxTitleLength:
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidTicket, domain.MaxTitleLength)
	case utf8.RuneCountInString(ticket.Description) > domain.MaxDescriptionLength:
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidTicket, domain.MaxDescriptionLength)
	case !ticket.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTicket, ticket.Status)
	case !ticket.UrgencyLevel.Valid():
		return fmt.Errorf("%w: urgency %d out of range", ErrInvalidTicket, ticket.UrgencyLevel)
	case !ticket.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidTicket, ticket.Category)
	}
	return nil
}

func normalizeAssignee(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
