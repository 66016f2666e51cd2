package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	snapshotKey = "catalog:snapshot"
	snapshotTTL = 24 * time.Hour
)

// SnapshotStore keeps the most recent good catalog bundle in Redis so
// the API can keep serving tools through a database outage.
type SnapshotStore struct {
	client *redis.Client
}

// NewSnapshotStore connects to Redis and verifies the connection.
func NewSnapshotStore(redisURL string) (*SnapshotStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &SnapshotStore{client: client}, nil
}

// NewSnapshotStoreWithClient creates a store from an existing Redis client.
func NewSnapshotStoreWithClient(client *redis.Client) *SnapshotStore {
	return &SnapshotStore{client: client}
}

// Save overwrites the snapshot. The TTL means a long outage eventually
// drops through to the embedded bundle rather than serving a catalog
// that is days old.
func (s *SnapshotStore) Save(ctx context.Context, bundle Bundle) error {
	jsonData, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal catalog snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, jsonData, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("save catalog snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or nil when none exists.
func (s *SnapshotStore) Load(ctx context.Context) (*Bundle, error) {
	jsonData, err := s.client.Get(ctx, snapshotKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}

	var bundle Bundle
	if err := json.Unmarshal([]byte(jsonData), &bundle); err != nil {
		return nil, fmt.Errorf("unmarshal catalog snapshot: %w", err)
	}
	return &bundle, nil
}

// Close closes the Redis connection.
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
