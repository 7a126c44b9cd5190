package tasks

import (
	"context"
	"log/slog"
)

type CleanupCacheTask struct {
	Task
	cleaner CacheCleaner
}

func NewCleanupCacheTask(sourceName string, cleaner CacheCleaner) *CleanupCacheTask {
	return &CleanupCacheTask{
		Task:    NewTask(TaskTypeCleanupCache, sourceName),
		cleaner: cleaner,
	}
}

func (t *CleanupCacheTask) Execute(ctx context.Context) error {
	removed := t.cleaner.Cleanup()

	if removed > 0 {
		slog.Info("Task completed",
			"type", "CleanupCache",
			"source", t.SourceName,
			"duration", t.GetDuration(),
			"removed", removed)
	}

	return nil
}
