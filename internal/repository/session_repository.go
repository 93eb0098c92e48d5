package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

// SessionRepository stores server-side login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	// Get returns ErrNotFound once the session expired or was revoked.
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type redisSessionRepository struct {
	client *redis.Client
	prefix string
}

// NewSessionRepository returns a Redis-backed session store. Keys live under
// prefix and expire with the session.
func NewSessionRepository(client *redis.Client, prefix string) SessionRepository {
	return &redisSessionRepository{client: client, prefix: prefix}
}

func (r *redisSessionRepository) key(id string) string {
	return r.prefix + "session:" + id
}

func (r *redisSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	key := r.key(session.ID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    session.UserID,
			"issued_at":  session.IssuedAt.UnixNano(),
			"expires_at": session.ExpiresAt.UnixNano(),
		})
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (r *redisSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	values, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, err
	}
	return sessionFromHash(id, values)
}

// sessionFromHash decodes a stored session. A hash with missing or
// malformed fields is treated as absent.
func sessionFromHash(id string, values map[string]string) (*domain.Session, error) {
	if len(values) == 0 || values["user_id"] == "" {
		return nil, ErrNotFound
	}
	issued, err := strconv.ParseInt(values["issued_at"], 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}
	expires, err := strconv.ParseInt(values["expires_at"], 10, 64)
	if err != nil || expires <= 0 {
		return nil, ErrNotFound
	}
	return &domain.Session{
		ID:        id,
		UserID:    values["user_id"],
		IssuedAt:  time.Unix(0, issued).UTC(),
		ExpiresAt: time.Unix(0, expires).UTC(),
	}, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}
