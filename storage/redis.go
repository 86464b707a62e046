package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"newsbrief/types"

	"github.com/redis/go-redis/v9"
)

const DefaultSnapshotKey = "newsbrief:latest"

// RedisConfig configures the snapshot replica.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration // 0 keeps the key forever
}

// Snapshot keeps the latest persisted record in Redis so a restarted process
// without a database can serve it again.
type Snapshot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewSnapshot connects and verifies connectivity.
func NewSnapshot(cfg RedisConfig) (*Snapshot, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewSnapshotFromClient(client, cfg.Key, cfg.TTL), nil
}

func NewSnapshotFromClient(client *redis.Client, key string, ttl time.Duration) *Snapshot {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &Snapshot{client: client, key: key, ttl: ttl}
}

func (s *Snapshot) Name() string { return "redis" }

func (s *Snapshot) Put(ctx context.Context, rec types.BriefingRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Latest returns nil without error when no snapshot exists.
func (s *Snapshot) Latest(ctx context.Context) (*types.BriefingRecord, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	var rec types.BriefingRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &rec, nil
}

func (s *Snapshot) Close() error { return s.client.Close() }
