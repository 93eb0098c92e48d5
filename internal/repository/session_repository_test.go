package repository

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

func TestSessionFromHash(t *testing.T) {
	issued := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	expires := issued.Add(8 * time.Hour)
	valid := map[string]string{
		"user_id":    "u1",
		"issued_at":  strconv.FormatInt(issued.UnixNano(), 10),
		"expires_at": strconv.FormatInt(expires.UnixNano(), 10),
	}

	session, err := sessionFromHash("s1", valid)
	require.NoError(t, err)
	assert.Equal(t, domain.Session{ID: "s1", UserID: "u1", IssuedAt: issued, ExpiresAt: expires}, *session)

	with := func(key, value string) map[string]string {
		out := map[string]string{}
		for k, v := range valid {
			out[k] = v
		}
		if value == "" {
			delete(out, key)
		} else {
			out[key] = value
		}
		return out
	}

	cases := map[string]map[string]string{
		"empty hash":        {},
		"missing user":      with("user_id", ""),
		"missing expiry":    with("expires_at", ""),
		"garbage expiry":    with("expires_at", "tomorrow"),
		"negative expiry":   with("expires_at", "-5"),
		"garbage issued at": with("issued_at", "12:00"),
		"missing issued at": with("issued_at", ""),
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			session, err := sessionFromHash("s1", values)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Nil(t, session)
		})
	}
}

// REDIS_TEST_ADDR points the round trip at a disposable redis.
func TestRedisSessionRepositoryRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	prefix := "ticketdesk-test:" + uuid.NewString() + ":"
	repo := NewSessionRepository(client, prefix)
	now := time.Now().UTC().Truncate(time.Millisecond)
	session := &domain.Session{ID: uuid.NewString(), UserID: "u1", IssuedAt: now, ExpiresAt: now.Add(time.Minute)}

	require.NoError(t, repo.Create(ctx, session))
	ttl, err := client.TTL(ctx, prefix+"session:"+session.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	stored, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, *session, *stored)

	require.NoError(t, client.HSet(ctx, prefix+"session:broken", "user_id", "u2", "expires_at", "soon").Err())
	_, err = repo.Get(ctx, "broken")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "broken"))

	require.NoError(t, repo.Delete(ctx, session.ID))
	_, err = repo.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	expired := &domain.Session{ID: uuid.NewString(), UserID: "u1", IssuedAt: now, ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, repo.Create(ctx, expired))
	_, err = repo.Get(ctx, expired.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
