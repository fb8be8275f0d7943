/**
 * @description
 * This file provides per-account advisory locking. Mutations that race
 * between the chat follow-up worker and the reminder sweep (setup
 * completion, summary overwrite, reminder check-and-update) are serialized
 * per account id so two concurrent writers cannot interleave.
 *
 * Two implementations exist: a Redis lock for multi-instance deployments and
 * an in-process mutex map used in tests and when no Redis URL is configured.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrAccountBusy is returned when the per-account lock cannot be acquired
// within the configured attempts.
var ErrAccountBusy = errors.New("account is busy")

// AccountLocker serializes mutations per account id. Acquire blocks briefly
// and returns a release function on success.
type AccountLocker interface {
	Acquire(ctx context.Context, accountID uuid.UUID) (release func(), err error)
}

const (
	lockTTL           = 30 * time.Second
	lockRetryInterval = 100 * time.Millisecond
	lockMaxAttempts   = 50
)

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisAccountLocker implements AccountLocker with a Redis SET NX lock.
type RedisAccountLocker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisAccountLocker creates a Redis-backed account locker.
func NewRedisAccountLocker(client redis.UniversalClient, prefix string) *RedisAccountLocker {
	if prefix == "" {
		prefix = "agent:account_lock"
	}
	return &RedisAccountLocker{client: client, prefix: prefix}
}

// Acquire takes the lock for the account, polling until it is free or the
// attempt budget runs out. The lock expires on its own if the holder dies.
func (l *RedisAccountLocker) Acquire(ctx context.Context, accountID uuid.UUID) (func(), error) {
	key := fmt.Sprintf("%s:%s", l.prefix, accountID)
	token := uuid.NewString()

	for attempt := 0; attempt < lockMaxAttempts; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire account lock: %w", err)
		}
		if ok {
			release := func() {
				// Compare-and-delete so an expired lock taken over by
				// another holder is never released by us.
				_, _ = releaseLockScript.Run(context.Background(), l.client, []string{key}, token).Result()
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAccountBusy, accountID)
}

// MemoryAccountLocker implements AccountLocker with an in-process mutex per
// account. Suitable for single-instance deployments and tests.
type MemoryAccountLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewMemoryAccountLocker creates an in-process account locker.
func NewMemoryAccountLocker() *MemoryAccountLocker {
	return &MemoryAccountLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Acquire blocks until the account's mutex is available.
func (l *MemoryAccountLocker) Acquire(_ context.Context, accountID uuid.UUID) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
