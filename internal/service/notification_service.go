package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/config"
	"github.com/spec-kit/ticketdesk/internal/events"
)

// EventTypeHeader names the event type on webhook requests.
const EventTypeHeader = "X-Ticketdesk-Event"

// ErrWebhookRejected is returned when the webhook answers outside 2xx.
var ErrWebhookRejected = errors.New("webhook rejected event")

// NotificationService posts ticket events as JSON to the configured webhook.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// Enabled reports whether a webhook is configured.
func (n *NotificationService) Enabled() bool {
	return strings.TrimSpace(n.cfg.WebhookURL) != ""
}

// RegisterHandlers subscribes to ticket events. Nothing is subscribed
// without a webhook URL.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || !n.Enabled() {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventTicketAssigned,
		events.EventTicketDeleted,
	} {
		n.dispatcher.Subscribe(eventType, n.deliver)
	}
	n.logger.Info("ticket webhook enabled", zap.String("url", n.cfg.WebhookURL))
}

// deliver posts one event. Failures are returned to the dispatcher, which
// logs them; the ticket operation has already committed.
func (n *NotificationService) deliver(ctx context.Context, event events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	agent := fiber.Post(n.cfg.WebhookURL)
	agent.Timeout(n.cfg.WebhookTimeout())
	agent.Set(EventTypeHeader, string(event.Type))
	agent.JSON(event)
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}

	status, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("webhook %s: %w", event.Type, errors.Join(errs...))
	}
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		return fmt.Errorf("%w: %s answered %d", ErrWebhookRejected, event.Type, status)
	}

	n.logger.Debug("webhook delivered",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("ticket_id", event.TicketID))
	return nil
}
