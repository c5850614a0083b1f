package expiration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/pkg/logger"
)

type scriptedExpirer struct {
	mu      sync.Mutex
	batches []int
	calls   int
	err     error
}

func (e *scriptedExpirer) ExpireOverdue(_ context.Context, _ int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return 0, e.err
	}
	e.calls++
	if len(e.batches) == 0 {
		return 0, nil
	}
	n := e.batches[0]
	e.batches = e.batches[1:]
	return n, nil
}

func (e *scriptedExpirer) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func TestWorker_RunOnce_DrainsFullBatches(t *testing.T) {
	expirer := &scriptedExpirer{batches: []int{10, 10, 3}}
	w := NewWorker(expirer, nil, time.Minute, 10, logger.NewNop())

	total, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 23, total)
	assert.Equal(t, 3, expirer.callCount())
}

func TestWorker_RunOnce_Error(t *testing.T) {
	w := NewWorker(&scriptedExpirer{err: errors.New("db down")}, nil, time.Minute, 10, logger.NewNop())
	_, err := w.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestWorker_RunOnce_SkipsWhenLockHeld(t *testing.T) {
	locker := NewLocalLocker()
	release, err := locker.Lock(context.Background())
	require.NoError(t, err)
	defer release()

	expirer := &scriptedExpirer{batches: []int{1}}
	w := NewWorker(expirer, locker, time.Minute, 10, logger.NewNop())

	total, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Equal(t, 0, expirer.callCount())
}

func TestWorker_Start(t *testing.T) {
	expirer := &scriptedExpirer{}
	w := NewWorker(expirer, nil, 10*time.Millisecond, 10, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return expirer.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	first := NewRedisLocker(client, 5*time.Second)
	second := NewRedisLocker(client, 5*time.Second)

	release, err := first.Lock(context.Background())
	require.NoError(t, err)
	assert.True(t, mr.Exists(LockName))

	_, err = second.Lock(context.Background())
	assert.ErrorIs(t, err, ErrLockHeld)

	release()
	assert.False(t, mr.Exists(LockName))

	release, err = second.Lock(context.Background())
	require.NoError(t, err)
	release()
}
