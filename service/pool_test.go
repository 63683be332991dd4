package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"agentpool/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool_Panics(t *testing.T) {
	queue := NewBoundedQueue[*WorkItem](4)
	executor := &mock.ExecutorMock{}
	logger := log.NewNopLogger()

	t.Run("queue_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.pool.go: queue is required", func() {
			NewWorkerPool(nil, executor, 1, logger)
		})
	})
	t.Run("executor_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.pool.go: executor is required", func() {
			NewWorkerPool(queue, nil, 1, logger)
		})
	})
	t.Run("logger_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.pool.go: logger is required", func() {
			NewWorkerPool(queue, executor, 1, nil)
		})
	})
}

func TestWorkerPool_ExecutesAndCompletesItems(t *testing.T) {
	ctx := context.Background()
	queue := NewBoundedQueue[*WorkItem](16)
	executor := &mock.ExecutorMock{
		ExecuteFunc: func(ctx context.Context, payload any) (any, error) {
			return fmt.Sprintf("done:%v", payload), nil
		},
	}
	pool := NewWorkerPool(queue, executor, 4, log.NewNopLogger())
	pool.Start()
	defer pool.Stop(time.Second)

	items := make([]*WorkItem, 0, 10)
	for i := 0; i < 10; i++ {
		item, err := pool.Submit(ctx, i)
		require.NoError(t, err)
		items = append(items, item)
	}

	for i, item := range items {
		result, err := item.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("done:%d", i), result)
	}
	assert.Len(t, executor.ExecuteCalls(), 10)
}

func TestWorkerPool_ExecutorErrorBecomesItemResult(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("agent failed")
	queue := NewBoundedQueue[*WorkItem](4)
	executor := &mock.ExecutorMock{
		ExecuteFunc: func(ctx context.Context, payload any) (any, error) {
			return nil, errBoom
		},
	}
	pool := NewWorkerPool(queue, executor, 1, log.NewNopLogger())
	pool.Start()
	defer pool.Stop(time.Second)

	item, err := pool.Submit(ctx, "payload")
	require.NoError(t, err)

	result, err := item.Wait(ctx)
	require.ErrorIs(t, err, errBoom)
	assert.Nil(t, result)
}

func TestWorkerPool_ItemCancellationPropagates(t *testing.T) {
	queue := NewBoundedQueue[*WorkItem](4)
	executor := &mock.ExecutorMock{
		ExecuteFunc: func(ctx context.Context, payload any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	pool := NewWorkerPool(queue, executor, 1, log.NewNopLogger())
	pool.Start()
	defer pool.Stop(time.Second)

	itemCtx, cancelItem := context.WithCancel(context.Background())
	item, err := pool.Submit(itemCtx, "payload")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	cancelItem()

	_, err = item.Wait(context.Background())
	require.ErrorIs(t, err, context.Canceled)
}

func TestWorkerPool_ShutdownCancelsInFlightWork(t *testing.T) {
	queue := NewBoundedQueue[*WorkItem](4)
	executor := &mock.ExecutorMock{
		ExecuteFunc: func(ctx context.Context, payload any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	pool := NewWorkerPool(queue, executor, 1, log.NewNopLogger())
	pool.Start()

	item, err := pool.Submit(context.Background(), "payload")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	pool.Stop(time.Second)

	_, err = item.Wait(context.Background())
	require.ErrorIs(t, err, context.Canceled)
}

func TestWorkerPool_PanicRecovered(t *testing.T) {
	ctx := context.Background()
	queue := NewBoundedQueue[*WorkItem](4)
	var calls int
	var mu sync.Mutex
	executor := &mock.ExecutorMock{
		ExecuteFunc: func(ctx context.Context, payload any) (any, error) {
			mu.Lock()
			calls++
			first := calls == 1
			mu.Unlock()
			if first {
				panic("executor blew up")
			}
			return "recovered", nil
		},
	}
	pool := NewWorkerPool(queue, executor, 1, log.NewNopLogger())
	pool.Start()
	defer pool.Stop(time.Second)

	bad, err := pool.Submit(ctx, "bad")
	require.NoError(t, err)
	_, err = bad.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executor panic")

	// The loop survived the panic and keeps consuming.
	good, err := pool.Submit(ctx, "good")
	require.NoError(t, err)
	result, err := good.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
}

func TestWorkerPool_QueueCompleteDrainsThenStops(t *testing.T) {
	ctx := context.Background()
	queue := NewBoundedQueue[*WorkItem](8)
	executor := &mock.ExecutorMock{
		ExecuteFunc: func(ctx context.Context, payload any) (any, error) {
			return payload, nil
		},
	}
	pool := NewWorkerPool(queue, executor, 2, log.NewNopLogger())

	items := make([]*WorkItem, 0, 5)
	for i := 0; i < 5; i++ {
		item, err := pool.Submit(ctx, i)
		require.NoError(t, err)
		items = append(items, item)
	}
	queue.Complete()

	pool.Start()
	for i, item := range items {
		result, err := item.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, result)
	}

	_, err := pool.Submit(ctx, "late")
	require.ErrorIs(t, err, ErrQueueClosed)

	// Workers exit on their own once the queue is drained.
	pool.Stop(time.Second)
}
