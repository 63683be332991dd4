package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"agentpool/helpers"
	"agentpool/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// panicPause is how long a worker loop sleeps after recovering from an
// executor panic before consuming the next item.
const panicPause = 100 * time.Millisecond

// WorkerPool drains a BoundedQueue with a fixed set of concurrent consumer
// loops and executes each item against the injected executor. Every
// execution runs under a signal combining the pool's shutdown with the
// item's own cancellation; the outcome (value, cancellation or error) is
// written to the item's result slot. An executor panic is recovered and
// logged and the loop pauses briefly, it never terminates silently.
type WorkerPool struct {
	queue    *BoundedQueue[*WorkItem]
	executor interfaces.Executor
	logger   log.Logger
	workers  int

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	runCtx  context.Context
	wg      sync.WaitGroup
}

// NewWorkerPool creates a pool of consumer loops over queue. workers <= 0
// defaults to 2× the available CPU parallelism. Panics on nil queue,
// executor or logger.
//
// Called from cmd/main when building the pool.
func NewWorkerPool(queue *BoundedQueue[*WorkItem], executor interfaces.Executor, workers int, logger log.Logger) *WorkerPool {
	if workers < 1 {
		workers = 2 * runtime.GOMAXPROCS(0)
	}
	return &WorkerPool{
		queue:    helpers.NilPanic(queue, "service.pool.go: queue is required"),
		executor: helpers.NilPanic(executor, "service.pool.go: executor is required"),
		logger:   log.With(helpers.NilPanic(logger, "service.pool.go: logger is required"), "component", "worker_pool"),
		workers:  workers,
	}
}

// Submit wraps payload in a WorkItem and enqueues it, blocking under
// backpressure. The returned item's Wait observes the execution outcome.
// Returns ErrQueueClosed after the queue has been completed and ctx.Err()
// when the producer's context is cancelled while blocked.
func (p *WorkerPool) Submit(ctx context.Context, payload any) (*WorkItem, error) {
	item := NewWorkItem(ctx, payload)
	if err := p.queue.Enqueue(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// QueueLen reports how many items are waiting for a worker.
func (p *WorkerPool) QueueLen() int {
	return p.queue.Count()
}

// QueueCap reports the queue's fixed capacity.
func (p *WorkerPool) QueueCap() int {
	return p.queue.Cap()
}

// Start launches the consumer loops. Second and later calls are no-ops.
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.runCtx, p.cancel = context.WithCancel(context.Background())

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.loop(i)
	}
	level.Info(p.logger).Log("msg", "worker pool started", "workers", p.workers)
}

// Stop signals all loops to shut down and waits up to timeout for a
// graceful drain, logging when the timeout is exceeded. In-flight executor
// calls see the shutdown through their combined context.
func (p *WorkerPool) Stop(timeout time.Duration) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		level.Info(p.logger).Log("msg", "worker pool stopped")
	case <-time.After(timeout):
		level.Warn(p.logger).Log("msg", "worker pool stop timed out before drain", "timeout", timeout)
	}
}

// loop is one consumer: dequeue, execute under the combined signal,
// complete the item's result slot.
func (p *WorkerPool) loop(id int) {
	defer p.wg.Done()
	logger := log.With(p.logger, "worker", id)

	for {
		item, ok, err := p.queue.Dequeue(p.runCtx)
		if err != nil {
			// Pool shutdown while waiting for work.
			return
		}
		if !ok {
			level.Debug(logger).Log("msg", "queue completed, worker exiting")
			return
		}

		if panicked := p.runItem(item); panicked {
			level.Error(logger).Log("msg", "executor panicked, pausing worker")
			time.Sleep(panicPause)
		}
	}
}

// runItem executes one item and fulfills its slot. Returns true when the
// executor panicked; the item is still completed with an error in that case.
func (p *WorkerPool) runItem(item *WorkItem) (panicked bool) {
	// Combined signal: the item is cancelled when either its producer
	// cancels it or the pool shuts down.
	ctx, cancel := context.WithCancel(item.Context())
	defer cancel()
	stop := context.AfterFunc(p.runCtx, cancel)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			panicked = true
			item.complete(nil, fmt.Errorf("executor panic: %v", r))
		}
	}()

	result, err := p.executor.Execute(ctx, item.Payload())
	if err != nil {
		item.complete(nil, err)
		return false
	}
	item.complete(result, nil)
	return false
}
