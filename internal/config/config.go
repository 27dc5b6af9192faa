package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN       string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL       string `env:"RABBITMQ_URL,required=true"`
	RedisURL          string `env:"REDIS_URL,required=true"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY,default=4"`
	APIPort           int    `env:"API_PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`

	// Per-account upload throttle on addContentToBatch.
	UploadLimitPerWindow int `env:"UPLOAD_LIMIT_PER_WINDOW,default=10"`
	UploadWindowSeconds  int `env:"UPLOAD_WINDOW_SECONDS,default=60"`

	ReconcileIntervalSeconds int `env:"RECONCILE_INTERVAL_SECONDS,default=30"`
	ReconcileGraceSeconds    int `env:"RECONCILE_GRACE_SECONDS,default=120"`
	ReconcileLimit           int `env:"RECONCILE_LIMIT,default=100"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.UploadLimitPerWindow < 1 {
		return nil, fmt.Errorf("failed to load config: UPLOAD_LIMIT_PER_WINDOW must be positive")
	}
	return &cfg, nil
}

func (c *Config) UploadWindow() time.Duration {
	return time.Duration(c.UploadWindowSeconds) * time.Second
}

func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

func (c *Config) ReconcileGrace() time.Duration {
	return time.Duration(c.ReconcileGraceSeconds) * time.Second
}
