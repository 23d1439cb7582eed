package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "goalwatch:delivery:"

// Redis stores one key per game. Record uses SETNX, so the first writer
// wins and later writers see ErrAlreadyRecorded.
type Redis struct {
	client *redis.Client
	ttl    time.Duration // 0 keeps records forever
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// OpenRedis connects to the server at url (redis://…) and verifies it.
func OpenRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client, ttl), nil
}

func (r *Redis) Has(ctx context.Context, gameID string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+gameID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) Record(ctx context.Context, gameID string, at time.Time) error {
	created, err := r.client.SetNX(ctx, redisKeyPrefix+gameID, at.Format(time.RFC3339Nano), r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !created {
		return ErrAlreadyRecorded
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, gameID string) (DeliveryRecord, error) {
	v, err := r.client.Get(ctx, redisKeyPrefix+gameID).Result()
	if errors.Is(err, redis.Nil) {
		return DeliveryRecord{}, ErrNotFound
	}
	if err != nil {
		return DeliveryRecord{}, fmt.Errorf("redis get: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return DeliveryRecord{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return DeliveryRecord{GameID: gameID, NotifiedAt: at}, nil
}

func (r *Redis) Close() error { return r.client.Close() }
