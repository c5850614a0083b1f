package expiration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// LockName ключ распределенной блокировки прохода
const LockName = "reservation:expiration:sweep"

// RedisLocker блокировка через redsync
type RedisLocker struct {
	sync *redsync.Redsync
	ttl  time.Duration
}

// NewRedisLocker создает блокировку поверх redis клиента
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		sync: redsync.New(goredis.NewPool(client)),
		ttl:  ttl,
	}
}

// Lock пытается взять блокировку один раз, без ожидания
func (l *RedisLocker) Lock(ctx context.Context) (func(), error) {
	mutex := l.sync.NewMutex(LockName, redsync.WithExpiry(l.ttl), redsync.WithTries(1))
	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			return nil, ErrLockHeld
		}
		return nil, fmt.Errorf("expiration: lock: %w", err)
	}

	return func() {
		// Контекст прохода может быть отменен, снимаем блокировку отдельным
		unlockCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, _ = mutex.UnlockContext(unlockCtx)
	}, nil
}

// LocalLocker блокировка в пределах процесса для запуска без redis
type LocalLocker struct {
	slot chan struct{}
}

// NewLocalLocker создает блокировку в пределах процесса
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slot: make(chan struct{}, 1)}
}

// Lock берет блокировку без ожидания
func (l *LocalLocker) Lock(context.Context) (func(), error) {
	select {
	case l.slot <- struct{}{}:
		return func() { <-l.slot }, nil
	default:
		return nil, ErrLockHeld
	}
}
