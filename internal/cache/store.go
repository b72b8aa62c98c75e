// ABOUTME: Redis-backed cache of track load results
// ABOUTME: Connects with a ping check and stores results as JSON with a TTL
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Resonate-Protocol/lavalink-go/pkg/rest"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Options defines the Redis connection
type Options struct {
	Addr        string // ex: "localhost:6379"
	Username    string
	Password    string
	DB          int
	DialTimeout time.Duration
	PingTimeout time.Duration
}

// Connect creates a Redis client and checks it answers a ping
func Connect(ctx context.Context, opts Options, log *zap.Logger) (*redis.Client, error) {
	if opts.PingTimeout <= 0 {
		return nil, fmt.Errorf("PingTimeout must be > 0, got %v", opts.PingTimeout)
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Username:    opts.Username,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	log.Info("connecting to redis", zap.String("addr", opts.Addr))

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", opts.Addr, err)
	}

	log.Info("connected to redis", zap.String("addr", opts.Addr))
	return client, nil
}

// Store caches load results in Redis
type Store struct {
	client *redis.Client
}

// NewStore wraps a connected client
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// SaveLoad stores a load result for identifier
func (s *Store) SaveLoad(ctx context.Context, identifier string, result *rest.LoadResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode load result: %w", err)
	}
	if err := s.client.Set(ctx, LoadKey(identifier), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache load result: %w", err)
	}
	return nil
}

// GetLoad returns the cached result for identifier, or nil on a miss
func (s *Store) GetLoad(ctx context.Context, identifier string) (*rest.LoadResult, error) {
	data, err := s.client.Get(ctx, LoadKey(identifier)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get cached load result: %w", err)
	}

	var result rest.LoadResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("corrupt cached load result: %w", err)
	}
	return &result, nil
}

// Invalidate removes the cached result for identifier
func (s *Store) Invalidate(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, LoadKey(identifier)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// Flush removes all cached load results
func (s *Store) Flush(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefixLoad+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}
