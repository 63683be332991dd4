package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agentpool/adapters/myredis"
	"agentpool/handlers"
	"agentpool/interfaces"
	"agentpool/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// scalerLockResource serializes scaling across control-plane replicas.
const scalerLockResource = "scaler"

func main() {
	// Initialize logger
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	logger = log.WithPrefix(logger, "caller", log.DefaultCaller)

	level.Info(logger).Log("msg", "Starting agentpool control plane")

	// Load configuration
	config, err := LoadConfig()
	if err != nil {
		level.Error(logger).Log("msg", "Failed to load configuration", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log(
		"msg", "Configuration loaded",
		"admin_port_http", config.HTTPPort,
		"redis_addr", config.RedisAddr,
		"strategy", config.Strategy,
	)

	// Connect to Redis
	var store interfaces.AtomicStore
	var registry interfaces.Registry
	var applier interfaces.ScaleApplier
	{
		redisClient, err := myredis.NewRedisUniversalClient(config.RedisAddr)
		if err != nil {
			level.Error(logger).Log("msg", "Failed to create Redis client", "err", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			level.Error(logger).Log("msg", "Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		level.Info(logger).Log("msg", "Connected to Redis")

		store = myredis.NewAtomicStore(redisClient)
		registry = myredis.NewInstanceRegistry(redisClient, "")
		applier = myredis.NewDesiredCapacityApplier(redisClient, "")
	}

	// Build the control plane
	balancer := service.NewLoadBalancer(service.LoadBalancerConfig{
		Strategy:               config.Strategy,
		MarkUnhealthyOnFailure: true,
	}, logger)
	breaker := service.NewCircuitBreaker("agent-call", config.BreakerThreshold, config.BreakerResetTimeout, logger)
	dispatcher := service.NewAgentDispatcher(balancer, breaker, nil, service.JSONAffinityKey, logger)

	queue := service.NewBoundedQueue[*service.WorkItem](config.QueueCapacity)
	pool := service.NewWorkerPool(queue, dispatcher, config.WorkerCount, logger)
	pool.Start()

	metrics := service.NewPoolMetricsProvider(queue, logger)
	scaler := service.NewAutoScaler(service.AutoScalerConfig{
		MinInstances:        config.MinInstances,
		MaxInstances:        config.MaxInstances,
		TargetCPUPercent:    config.TargetCPUPercent,
		TargetMemoryPercent: config.TargetMemoryPercent,
		ScaleUpCooldown:     config.ScaleUpCooldown,
		ScaleDownCooldown:   config.ScaleDownCooldown,
	}, config.MinInstances, metrics, applier, logger)

	lockManager := service.NewLockManager(store, 0, logger)

	// Background loops: registry sync and periodic scaling. Scaling runs
	// only while this replica holds the scaler lock.
	runCtx, runCancel := context.WithCancel(context.Background())
	go syncLoop(runCtx, balancer, registry, config.RegistrySyncInterval, logger)
	go scalerLoop(runCtx, scaler, lockManager, config.ScalerInterval, logger)

	// Create HTTP server (Echo)
	var e *echo.Echo
	{
		e = echo.New()
		e.HideBanner = true
		handlers.RegisterErrorHandler(e, logger)
		handlers.RegisterHandlers(e, handlers.NewHTTPServer(balancer, pool, breaker, scaler, logger))
	}

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%d", config.HTTPPort)
		level.Info(logger).Log("msg", "Starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			level.Error(logger).Log("msg", "HTTP server error", "err", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	level.Info(logger).Log("msg", "Shutting down...")
	runCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		level.Error(logger).Log("msg", "Error during server shutdown", "err", err)
	}

	queue.Complete()
	pool.Stop(10 * time.Second)

	level.Info(logger).Log("msg", "Stopped")
}

// syncLoop keeps the balancer's instance table aligned with the Redis
// registry feed.
func syncLoop(ctx context.Context, balancer *service.LoadBalancer, registry interfaces.Registry, interval time.Duration, logger log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := balancer.SyncFromRegistry(ctx, registry); err != nil {
				level.Warn(logger).Log("msg", "registry sync failed", "err", err)
			}
		}
	}
}

// scalerLoop evaluates scaling on the configured interval, gated by the
// distributed scaler lock so concurrent replicas never scale twice.
func scalerLoop(ctx context.Context, scaler *service.AutoScaler, locks *service.LockManager, interval time.Duration, logger log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			lock, err := locks.Acquire(ctx, scalerLockResource, interval, interval/2)
			if err != nil {
				level.Debug(logger).Log("msg", "scaler lock not acquired", "err", err)
				continue
			}

			if _, err := scaler.Evaluate(ctx); err != nil {
				level.Warn(logger).Log("msg", "scaling evaluation failed", "err", err)
			}
			lock.Close(ctx)
		}
	}
}
