package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/ticketdesk/internal/config"
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/events"
	"github.com/spec-kit/ticketdesk/internal/persistence"
	"github.com/spec-kit/ticketdesk/internal/repository"
)

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]domain.Session{}}
}

func (m *memorySessions) Create(_ context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
	return nil
}

func (m *memorySessions) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (m *memorySessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// stepClock advances one second per reading so creation order is observable.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type testEnv struct {
	repos    *repository.Repositories
	sessions *memorySessions
	auth     *AuthService
	tickets  *TicketService
	history  *HistoryService
	events   *recordedEvents
	clock    *stepClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	lite, err := persistence.OpenSQLite(ctx, "file:"+name+"?mode=memory&cache=shared&_pragma=foreign_keys(on)")
	require.NoError(t, err)
	t.Cleanup(lite.Close)
	require.NoError(t, persistence.RunSQLiteMigrations(ctx, lite.DB, zap.NewNop()))

	repos, err := repository.New(&persistence.Database{SQLite: lite})
	require.NoError(t, err)

	recorded := &recordedEvents{}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	for _, et := range []events.EventType{
		events.EventTicketCreated, events.EventTicketUpdated,
		events.EventTicketAssigned, events.EventTicketDeleted,
	} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			recorded.mu.Lock()
			defer recorded.mu.Unlock()
			recorded.events = append(recorded.events, e)
			return nil
		})
	}

	clock := &stepClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	sessions := newMemorySessions()
	authSvc := NewAuthService(config.AuthConfig{
		JWTSecret:         "test-secret",
		SessionTTLMinutes: 60,
		BcryptCost:        bcrypt.MinCost,
	}, AuthDependencies{UserRepo: repos.Users, SessionRepo: sessions, Dispatcher: dispatcher})
	ticketSvc := NewTicketService(TicketDependencies{
		TicketRepo: repos.Tickets,
		UserRepo:   repos.Users,
		Dispatcher: dispatcher,
		Clock:      clock.Now,
	})
	historySvc := NewHistoryService(HistoryDependencies{
		HistoryRepo: repos.History,
		UserRepo:    repos.Users,
		Dispatcher:  dispatcher,
	})
	historySvc.RegisterHandlers()

	return &testEnv{
		repos:    repos,
		sessions: sessions,
		auth:     authSvc,
		tickets:  ticketSvc,
		history:  historySvc,
		events:   recorded,
		clock:    clock,
	}
}

func (e *testEnv) register(t *testing.T, name, email string) *domain.User {
	t.Helper()
	user, _, err := e.auth.Register(context.Background(), name, email, "Passw0rd")
	require.NoError(t, err)
	return user
}
