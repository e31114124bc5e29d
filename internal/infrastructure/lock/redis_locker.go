// Package lock provides the named locks that serialize consignment workflows.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	appconsignment "github.com/erp/consignment/internal/application/consignment"
	"github.com/erp/consignment/internal/domain/shared"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultKeyPrefix  = "consignment:lock:"
	defaultRetryDelay = 50 * time.Millisecond
)

// RedisLocker obtains locks through Redis so that several server instances
// never work on the same consignment or product at once.
type RedisLocker struct {
	client     *redislock.Client
	prefix     string
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewRedisLocker creates a locker over an existing Redis client
func NewRedisLocker(client redis.UniversalClient, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client:     redislock.New(client),
		prefix:     defaultKeyPrefix,
		retryDelay: defaultRetryDelay,
		logger:     logger.Named("redis_locker"),
	}
}

// Obtain retries until the lock is taken or ctx expires. Without a deadline on
// ctx a single wait of ttl is allowed.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (appconsignment.Lock, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ttl)
		defer cancel()
	}

	lock, err := l.client.Obtain(ctx, l.prefix+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.retryDelay),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			l.logger.Warn("lock busy", zap.String("key", key))
			return nil, shared.NewDomainError(shared.CodeConcurrencyConflict,
				fmt.Sprintf("resource %s is busy, retry later", key))
		}
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return &redisLock{lock: lock}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

func (r *redisLock) Release(ctx context.Context) error {
	err := r.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

var _ appconsignment.Locker = (*RedisLocker)(nil)
