package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/config"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/session"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore returns a redis backed session store, or an in-process one
// when the cache is disabled.
func NewSessionStore(cfg config.CacheConfig) (session.Store, error) {
	if !cfg.Enabled {
		return session.NewMemoryStore(), nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return newRedisSessionStore(client, time.Duration(cfg.SessionTTLHours)*time.Hour), nil
}

func newRedisSessionStore(client *redis.Client, ttl time.Duration) *redisSessionStore {
	return &redisSessionStore{client: client, ttl: ttlOrDefault(ttl, defaultSessionTTL)}
}

func (s *redisSessionStore) Load(ctx context.Context, id string) (session.State, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return session.State{}, session.ErrNotFound
	}
	if err != nil {
		return session.State{}, fmt.Errorf("redis get failed: %w", err)
	}
	return session.Unmarshal(payload)
}

func (s *redisSessionStore) Save(ctx context.Context, state session.State) error {
	payload, err := session.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+state.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
