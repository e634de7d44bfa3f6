// Package redisstore implements fiber.Storage on top of go-redis, so that
// sessions (and the carts inside them) survive restarts and are shared
// between instances.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var _ fiber.Storage = (*Storage)(nil)

const (
	defaultTimeout = 5 * time.Second
	defaultPrefix  = "storefront:session:"
)

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr     string
	DB       int
	Password string
	// Prefix is prepended to every key. Defaults to "storefront:session:".
	Prefix  string
	Timeout time.Duration
}

// Storage is a fiber.Storage backed by Redis.
type Storage struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// New connects to Redis and validates connectivity with a ping.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	s := NewWithClient(client, cfg.Prefix, cfg.Timeout)

	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return s, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, timeout time.Duration) *Storage {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Storage{client: client, prefix: prefix, timeout: timeout}
}

func (s *Storage) key(k string) string {
	return s.prefix + k
}

func (s *Storage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get returns the value for key, or nil if it does not exist.
func (s *Storage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Set stores val under key; exp of 0 means no expiry.
func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.Set(ctx, s.key(key), val, exp).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *Storage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Reset removes every key under the prefix.
func (s *Storage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *Storage) Close() error {
	return s.client.Close()
}
