package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/loan-origination/pkg/loans"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps hand-off quotes in Redis as JSON under prefix+session,
// expiring after ttl. A zero ttl keeps records until cleared.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Dial connects to Redis and verifies the connection with a ping.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (s *RedisStore) key(session string) string {
	return s.prefix + session
}

func (s *RedisStore) Save(ctx context.Context, session string, quote loans.Quote) error {
	if session == "" {
		return ErrEmptySession
	}
	payload, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}
	if err := s.client.Set(ctx, s.key(session), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save quote: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, session string) (loans.Quote, error) {
	payload, err := s.client.Get(ctx, s.key(session)).Bytes()
	if errors.Is(err, redis.Nil) {
		return loans.Quote{}, ErrNotFound
	}
	if err != nil {
		return loans.Quote{}, fmt.Errorf("load quote: %w", err)
	}
	var quote loans.Quote
	if err := json.Unmarshal(payload, &quote); err != nil {
		return loans.Quote{}, fmt.Errorf("decode quote: %w", err)
	}
	return quote, nil
}

func (s *RedisStore) Clear(ctx context.Context, session string) error {
	if err := s.client.Del(ctx, s.key(session)).Err(); err != nil {
		return fmt.Errorf("clear quote: %w", err)
	}
	return nil
}
