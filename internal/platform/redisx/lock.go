package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
)

// NewClient connects to Redis using REDIS_ADDR. An empty addr means Redis is
// not configured and callers should run without it.
func NewClient(addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info("Connected to Redis", "addr", addr)
	return client, nil
}

// LeaseLocker is a SETNX-based lease. It only guards against concurrent
// sweep runs; expiry releases a lease held by a crashed instance.
type LeaseLocker struct {
	rdb      *redis.Client
	log      *logger.Logger
	holderID string
}

func NewLeaseLocker(rdb *redis.Client, log *logger.Logger) *LeaseLocker {
	return &LeaseLocker{
		rdb:      rdb,
		log:      log.With("component", "LeaseLocker"),
		holderID: uuid.New().String(),
	}
}

func (l *LeaseLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, l.holderID, ttl).Result()
}

func (l *LeaseLocker) Release(ctx context.Context, key string) error {
	// Release only a lease we still hold; a lease that expired and was
	// re-acquired elsewhere must stay.
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
	return l.rdb.Eval(ctx, script, []string{key}, l.holderID).Err()
}
