package locks

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockTTL = 30 * time.Second

// RedisLocker takes a short-lived SETNX lock per payment id so duplicate
// callbacks arriving together do not both hit the provider's verification
// endpoint. Losing the lock is harmless: the order store's compare-and-set
// transitions keep reconciliation idempotent either way.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, paymentID string) (bool, error) {
	return l.client.SetNX(ctx, "reconcile_lock:"+paymentID, "1", lockTTL).Result()
}

func (l *RedisLocker) Release(ctx context.Context, paymentID string) {
	l.client.Del(ctx, "reconcile_lock:"+paymentID)
}
