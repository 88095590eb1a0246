// Package cyclelock guards the one-cycle-in-flight invariant across
// processes. A single instance is covered by the ledger service's mutex;
// multi-instance deployments point every replica at the same Redis key so
// two admins cannot trigger overlapping claim cycles.
package cyclelock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lock is a best-effort distributed mutex for the claim cycle.
type Lock interface {
	// Acquire returns false when another cycle currently holds the lock.
	Acquire(ctx context.Context) (bool, error)
	// Release frees the lock. Releasing a lock this holder does not own
	// is a no-op.
	Release(ctx context.Context) error
}

const redisKey = "parasol:claim_cycle_lock"

// RedisLock implements Lock with a SETNX marker key and TTL. The TTL bounds
// how long a crashed holder can block cycles.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
	token  string
}

func NewRedisLock(client *redis.Client, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		ttl:    ttl,
		token:  uuid.NewString(),
	}
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, redisKey, l.token, l.ttl).Result()
}

func (l *RedisLock) Release(ctx context.Context) error {
	current, err := l.client.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	// Only the holder may release; a TTL-expired lock re-acquired by
	// another replica stays untouched.
	if current != l.token {
		return nil
	}
	return l.client.Del(ctx, redisKey).Err()
}

// LocalLock is the in-process fallback when Redis is not configured.
type LocalLock struct {
	mu   sync.Mutex
	held bool
}

func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

func (l *LocalLock) Acquire(_ context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *LocalLock) Release(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	return nil
}
