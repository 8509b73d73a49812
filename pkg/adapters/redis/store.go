// Package redis stores records as plain Redis string keys.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/introspection"
	"github.com/redis/go-redis/v9"

	"github.com/aretw0/studynotes/pkg/core"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "studynotes:"

// Config holds the configuration for the Redis store.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Client   *redis.Client // optional pre-built client
	Logger   *slog.Logger
}

// Store implements core.Store on Redis.
type Store struct {
	client *redis.Client
	prefix string
	addr   string
	owned  bool
	logger *slog.Logger
}

// NewStore builds the client. No connection is made until Initialize.
func NewStore(cfg Config) *Store {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	client := cfg.Client
	owned := false
	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		owned = true
	}

	return &Store{
		client: client,
		prefix: prefix,
		addr:   client.Options().Addr,
		owned:  owned,
		logger: cfg.Logger,
	}
}

// Initialize checks the server is reachable.
func (s *Store) Initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", s.addr, err)
	}
	if s.logger != nil {
		s.logger.Debug("redis store ready", "addr", s.addr, "prefix", s.prefix)
	}
	return nil
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Get returns the stored value or core.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

// Put stores value without expiry.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys under the prefix, without the prefix, sorted.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close releases the client if the store built it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Addr   string `json:"addr"`
	Prefix string `json:"prefix"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	return StoreState{Addr: s.addr, Prefix: s.prefix}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "redis-store"
}

var _ core.Store = (*Store)(nil)
var _ core.Deleter = (*Store)(nil)
var _ core.Lister = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
