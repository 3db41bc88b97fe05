package repository

import (
	"context"
	"errors"
	"fmt"

	"kommand-console/internal/domain"

	"github.com/redis/go-redis/v9"
)

type redisSessionRepository struct {
	client *redis.Client
	key    string
}

// NewRedisSessionRepository stores the session under SessionKey, optionally namespaced by prefix
func NewRedisSessionRepository(client *redis.Client, prefix string) SessionRepository {
	key := SessionKey
	if prefix != "" {
		key = fmt.Sprintf("%s:%s", prefix, SessionKey)
	}
	return &redisSessionRepository{client: client, key: key}
}

// Save stores the session without expiry; it lives until logout
func (r *redisSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load fetches the stored session
func (r *redisSessionRepository) Load(ctx context.Context) (*domain.Session, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeSession(data)
}

// Delete removes the stored session
func (r *redisSessionRepository) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
