package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/config"
	"github.com/spec-kit/ticketdesk/internal/domain"
	"github.com/spec-kit/ticketdesk/internal/events"
)

func TestRegisterRejectsWeakPasswordsAndDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, weak := range []string{"Ab1", "abcdef1", "ABCDEF1", "Abcdefg"} {
		_, _, err := env.auth.Register(ctx, "Weak", "weak@example.com", weak)
		assert.ErrorIs(t, err, ErrWeakPassword, weak)
	}

	env.register(t, "Alice", "alice@example.com")
	_, _, err := env.auth.Register(ctx, "Other Alice", " Alice@Example.com ", "Passw0rd")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterAssignsUserRoleAndSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, session, err := env.auth.Register(ctx, "Alice", "alice@example.com", "Passw0rd")
	require.NoError(t, err)
	assert.True(t, env.auth.HasRole(user, domain.RoleUser))
	assert.False(t, env.auth.HasRole(user, domain.RoleAdmin))

	current, err := env.auth.CurrentUser(ctx, session.Token)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@example.com")

	_, _, err := env.auth.Login(ctx, "alice@example.com", "WrongPass1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = env.auth.Login(ctx, "nobody@example.com", "Passw0rd")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@example.com")

	_, session, err := env.auth.Login(ctx, "ALICE@example.com", "Passw0rd")
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, session.ID))
	current, err := env.auth.CurrentUser(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestCurrentUserIgnoresGarbageAndExpiredSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	current, err := env.auth.CurrentUser(ctx, "not-a-jwt")
	require.NoError(t, err)
	assert.Nil(t, current)

	user := env.register(t, "Alice", "alice@example.com")
	_, session, err := env.auth.Login(ctx, user.Email, "Passw0rd")
	require.NoError(t, err)

	later := NewAuthService(config.AuthConfig{JWTSecret: "test-secret", SessionTTLMinutes: 60, BcryptCost: 4},
		AuthDependencies{
			UserRepo:    env.repos.Users,
			SessionRepo: env.sessions,
			Logger:      zap.NewNop(),
			Clock:       func() time.Time { return time.Now().Add(2 * time.Hour) },
		})
	current, err = later.CurrentUser(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = env.sessions.Get(ctx, session.ID)
	assert.Error(t, err)
}

func TestCurrentUserRejectsForeignSecret(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@example.com")
	_, session, err := env.auth.Login(ctx, "alice@example.com", "Passw0rd")
	require.NoError(t, err)

	other := NewAuthService(config.AuthConfig{JWTSecret: "other-secret", SessionTTLMinutes: 60, BcryptCost: 4},
		AuthDependencies{UserRepo: env.repos.Users, SessionRepo: env.sessions})
	current, err := other.CurrentUser(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestDeleteUserPolicy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.register(t, "Creator", "creator@example.com")
	assignee := env.register(t, "Assignee", "assignee@example.com")

	ticket := &domain.Ticket{Title: "t", Category: domain.TicketCategoryBug, AssignedToUserID: &assignee.ID}
	require.NoError(t, env.tickets.Create(ctx, ticket, creator.ID))

	adminCtx := WithActor(ctx, creator.ID)
	assert.ErrorIs(t, env.auth.DeleteUser(adminCtx, creator.ID), ErrUserHasTickets)
	require.NoError(t, env.auth.DeleteUser(adminCtx, assignee.ID))
	assert.ErrorIs(t, env.auth.DeleteUser(adminCtx, assignee.ID), ErrUserNotFound)

	stored, err := env.tickets.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedToUserID)

	env.events.mu.Lock()
	last := env.events.events[len(env.events.events)-1]
	env.events.mu.Unlock()
	assert.Equal(t, events.EventTicketAssigned, last.Type)
	assert.Equal(t, ticket.ID, last.TicketID)
	assert.Equal(t, creator.ID, last.ActorID)
	payload, ok := last.Payload.(events.TicketAssignedPayload)
	require.True(t, ok)
	require.NotNil(t, payload.PreviousAssigneeID)
	assert.Equal(t, assignee.ID, *payload.PreviousAssigneeID)
	assert.Nil(t, payload.AssigneeID)

	entries, err := env.history.ListForTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	unassigned := entries[len(entries)-1]
	assert.Equal(t, "Assignee changed from Assignee to none", unassigned.Describe())
	require.NotNil(t, unassigned.ChangedByID)
	assert.Equal(t, creator.ID, *unassigned.ChangedByID)
}

func TestSeederIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cfg := config.SeedConfig{
		Enabled:       true,
		AdminEmail:    "admin@local.com",
		AdminPassword: "Admin123!",
		UserEmail:     "dev1@local.com",
		UserPassword:  "Dev123!",
	}
	seeder := NewSeeder(cfg, env.auth, env.tickets, env.repos, zap.NewNop())

	require.NoError(t, seeder.Run(ctx))
	require.NoError(t, seeder.Run(ctx))

	all, err := env.tickets.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ajouter champ employé", all[0].Title)
	assert.Equal(t, domain.UrgencyCritical, all[0].UrgencyLevel)
	require.NotNil(t, all[0].AssignedTo)
	assert.Equal(t, "dev1@local.com", all[0].AssignedTo.Email)

	admin, _, err := env.auth.Login(ctx, "admin@local.com", "Admin123!")
	require.NoError(t, err)
	assert.True(t, admin.HasRole(domain.RoleAdmin))
	assert.Equal(t, admin.ID, all[1].CreatedByUserID)
}
