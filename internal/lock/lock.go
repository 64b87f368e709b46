// Package lock provides core.Locker implementations: a Redis lock for multi-instance
// deployments and an in-process one for a single server or demo mode.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"digital-ondu/internal/core"
	"digital-ondu/internal/logging"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	defaultTTL  = 30 * time.Second
	defaultWait = 5 * time.Second
	retryEvery  = 50 * time.Millisecond
)

// Redis holds store locks in Redis through redislock.
type Redis struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	log    *logrus.Logger
}

var _ core.Locker = (*Redis)(nil)

func NewRedis(rdb redis.UniversalClient, log *logrus.Logger) *Redis {
	return &Redis{client: redislock.New(rdb), ttl: defaultTTL, wait: defaultWait, log: log}
}

// Connect dials addr and verifies it with a ping.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, PoolSize: 100})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (r *Redis) Obtain(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, r.wait)
	defer cancel()

	l, err := r.client.Obtain(waitCtx, key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(retryEvery),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s", core.ErrBusy, key)
	}
	if err != nil {
		logging.LogError(r.log, "lock", "Obtain", "Error obtaining lock", key, err)
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}
	return func() {
		if err := l.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logging.LogError(r.log, "lock", "Release", "Error releasing lock", key, err)
		}
	}, nil
}

// Local is a keyed mutex for a single process.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	wait  time.Duration
}

var _ core.Locker = (*Local)(nil)

func NewLocal() *Local {
	return &Local{slots: make(map[string]chan struct{}), wait: defaultWait}
}

func (l *Local) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *Local) Obtain(ctx context.Context, key string) (func(), error) {
	ch := l.slot(key)
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s", core.ErrBusy, key)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s", core.ErrBusy, key)
	}
	var once sync.Once
	return func() { once.Do(func() { <-ch }) }, nil
}

// StoreKey is the lock key guarding a store's stock and cash mutations.
func StoreKey(storeID fmt.Stringer) string {
	return "store:" + storeID.String()
}
