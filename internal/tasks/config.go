package tasks

import (
	"sync"
	"time"

	"github.com/mrlokans/bookstore/internal/config"
)

// Config holds configuration for the task queue system.
type Config struct {
	// DatabasePath is the SQLite file backing the queue.
	DatabasePath string

	// Workers is the number of concurrent task workers. Default: 2
	Workers int

	// MaxRetries is the number of attempts for a mirror retry. Default: 5
	MaxRetries int

	// RetryDelay is the backoff between mirror retry attempts. Default: 30s
	RetryDelay time.Duration

	// TaskTimeout bounds a single task execution. Default: 1m
	TaskTimeout time.Duration

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration

	// RetentionDuration is how long to keep completed tasks. Default: 24h
	RetentionDuration time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DatabasePath:      config.DefaultTasksDatabasePath,
		Workers:           2,
		MaxRetries:        5,
		RetryDelay:        30 * time.Second,
		TaskTimeout:       1 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   1 * time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// ConfigFrom maps application settings onto a queue Config. Unset values
// keep their defaults.
func ConfigFrom(settings config.Tasks) Config {
	cfg := DefaultConfig()
	if settings.DatabasePath != "" {
		cfg.DatabasePath = settings.DatabasePath
	}
	if settings.Workers > 0 {
		cfg.Workers = settings.Workers
	}
	if settings.MaxRetries > 0 {
		cfg.MaxRetries = settings.MaxRetries
	}
	if settings.RetryDelay > 0 {
		cfg.RetryDelay = settings.RetryDelay
	}
	if settings.TaskTimeout > 0 {
		cfg.TaskTimeout = settings.TaskTimeout
	}
	if settings.ReleaseAfter > 0 {
		cfg.ReleaseAfter = settings.ReleaseAfter
	}
	if settings.CleanupInterval > 0 {
		cfg.CleanupInterval = settings.CleanupInterval
	}
	if settings.RetentionDuration > 0 {
		cfg.RetentionDuration = settings.RetentionDuration
	}
	return cfg
}

// Queue configs are read from zero-value tasks, so the active policy lives at
// package level. NewClient installs it.
var (
	policyMu sync.RWMutex
	policy   = DefaultConfig()
)

func setPolicy(cfg Config) {
	policyMu.Lock()
	defer policyMu.Unlock()
	policy = cfg
}

func currentPolicy() Config {
	policyMu.RLock()
	defer policyMu.RUnlock()
	return policy
}
