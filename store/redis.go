package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MirrorConfig configures the optional Redis duplicate mirror
type MirrorConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	// KeyPrefix namespaces the per-item keys, default "tweetbot:published:"
	KeyPrefix string
	// TTL should match the dedup cooldown so entries expire with the window
	TTL time.Duration
}

// RedisMirror keeps a keyed copy of recent publishes in Redis so cooldown
// checks can short-circuit without scanning state. It is advisory only: the
// JSONL publish log remains authoritative, and any Redis error degrades to a
// plain index lookup.
type RedisMirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisMirror creates a mirror and verifies connectivity
func NewRedisMirror(cfg MirrorConfig) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "tweetbot:published:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}

	return &RedisMirror{client: client, prefix: prefix, ttl: ttl}, nil
}

// Seen reports whether itemID was marked within the mirror TTL
func (m *RedisMirror) Seen(itemID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := m.client.Exists(ctx, m.prefix+itemID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Mark records itemID with the cooldown TTL
func (m *RedisMirror) Mark(itemID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := m.client.Set(ctx, m.prefix+itemID, time.Now().UTC().Format(time.RFC3339), m.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection
func (m *RedisMirror) Close() error {
	return m.client.Close()
}
