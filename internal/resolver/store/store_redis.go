package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sdi-resolver/pkg/requestcontext"
)

const entryKeyPrefix = "did:entry:"

// RedisStore keeps one JSON value per key. Redis expiry implements the TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client. A zero TTL stores entries without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(key Key) string {
	return entryKeyPrefix + key.String()
}

func (s *RedisStore) Find(ctx context.Context, key Key) (*Entry, error) {
	raw, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find did entry: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode did entry: %w", err)
	}
	if !entry.Active {
		return nil, ErrNotFound
	}
	return &entry, nil
}

// Upsert overwrites the key; the creation time of a live entry is kept.
func (s *RedisStore) Upsert(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("entry is required")
	}
	now := requestcontext.Now(ctx).UTC()
	stored := *entry
	stored.Active = true
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if existing, err := s.Find(ctx, entry.Key()); err == nil {
		stored.CreatedAt = existing.CreatedAt
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode did entry: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(entry.Key()), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("upsert did entry: %w", err)
	}
	return nil
}
