package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var seen []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "second")
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(_ context.Context, e Event) error {
		seen = append(seen, "deleted")
		return nil
	})

	event := NewEvent(EventTicketCreated, 42, "user-1", time.Now(), TicketCreatedPayload{Title: "x"})
	require.NoError(t, d.Publish(context.Background(), event))

	assert.Equal(t, []string{"first", "second"}, seen)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, int64(42), event.TicketID)
}
