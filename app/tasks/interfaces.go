package tasks

import (
	"context"

	"github.com/mapcomb/mapcomb/app/search"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background task processing.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// CacheCleaner evicts expired entries and reports how many durable rows
// were removed.
type CacheCleaner interface {
	Cleanup() int64
}

// HealthProber checks source reachability.
type HealthProber interface {
	Health(ctx context.Context) []search.SourceHealth
}
