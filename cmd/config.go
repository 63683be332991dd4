package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"agentpool/service"
)

// AgentPoolConfig holds the host process configuration.
type AgentPoolConfig struct {
	RedisAddr string
	HTTPPort  int

	Strategy      service.Strategy
	WorkerCount   int
	QueueCapacity int

	BreakerThreshold    int
	BreakerResetTimeout time.Duration

	MinInstances        int
	MaxInstances        int
	TargetCPUPercent    float64
	TargetMemoryPercent float64
	ScaleUpCooldown     time.Duration
	ScaleDownCooldown   time.Duration
	ScalerInterval      time.Duration

	RegistrySyncInterval time.Duration
}

// LoadConfig loads configuration from environment variables.
// REDIS_ADDR and ADMIN_PORT_HTTP are required; everything else has a default.
func LoadConfig() (*AgentPoolConfig, error) {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required")
	}

	httpPortStr := os.Getenv("ADMIN_PORT_HTTP")
	if httpPortStr == "" {
		return nil, fmt.Errorf("ADMIN_PORT_HTTP is required")
	}
	httpPort, err := strconv.Atoi(httpPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_PORT_HTTP: %w", err)
	}

	cfg := &AgentPoolConfig{
		RedisAddr: redisAddr,
		HTTPPort:  httpPort,
		Strategy:  service.ParseStrategy(os.Getenv("BALANCER_STRATEGY")),
	}

	if cfg.WorkerCount, err = envInt("WORKER_COUNT", 0); err != nil {
		return nil, err
	}
	if cfg.QueueCapacity, err = envInt("QUEUE_CAPACITY", 64); err != nil {
		return nil, err
	}
	if cfg.BreakerThreshold, err = envInt("BREAKER_THRESHOLD", 5); err != nil {
		return nil, err
	}
	if cfg.BreakerResetTimeout, err = envDuration("BREAKER_RESET_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MinInstances, err = envInt("MIN_INSTANCES", 1); err != nil {
		return nil, err
	}
	if cfg.MaxInstances, err = envInt("MAX_INSTANCES", 10); err != nil {
		return nil, err
	}
	if cfg.TargetCPUPercent, err = envFloat("TARGET_CPU_PERCENT", 70); err != nil {
		return nil, err
	}
	if cfg.TargetMemoryPercent, err = envFloat("TARGET_MEMORY_PERCENT", 80); err != nil {
		return nil, err
	}
	if cfg.ScaleUpCooldown, err = envDuration("SCALE_UP_COOLDOWN", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ScaleDownCooldown, err = envDuration("SCALE_DOWN_COOLDOWN", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ScalerInterval, err = envDuration("SCALER_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RegistrySyncInterval, err = envDuration("REGISTRY_SYNC_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envInt(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func envFloat(name string, fallback float64) (float64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}
