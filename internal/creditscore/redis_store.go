package creditscore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// scoreKeyPrefix namespaces score snapshots in Redis.
const scoreKeyPrefix = "zkreditScore:"

// RedisStore persists credit score snapshots as JSON values in Redis.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed credit score store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL connects using a redis:// URL.
func NewRedisStoreFromURL(rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func scoreKey(wallet string) string {
	return scoreKeyPrefix + strings.ToLower(wallet)
}

func (s *RedisStore) Get(ctx context.Context, wallet string) (*CreditScore, error) {
	data, err := s.client.Get(ctx, scoreKey(wallet)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrScoreNotFound
		}
		return nil, fmt.Errorf("failed to read credit score: %w", err)
	}

	var score CreditScore
	if err := json.Unmarshal(data, &score); err != nil {
		// A corrupt snapshot is indistinguishable from a bad write; let the
		// caller refetch rather than fail hard.
		return nil, fmt.Errorf("%w: %v", ErrInvalidScore, err)
	}
	return &score, nil
}

func (s *RedisStore) Put(ctx context.Context, wallet string, score *CreditScore) error {
	data, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("failed to marshal credit score: %w", err)
	}
	if err := s.client.Set(ctx, scoreKey(wallet), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write credit score: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, wallet string) error {
	if err := s.client.Del(ctx, scoreKey(wallet)).Err(); err != nil {
		return fmt.Errorf("failed to delete credit score: %w", err)
	}
	return nil
}
