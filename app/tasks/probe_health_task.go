package tasks

import (
	"context"
	"log/slog"
)

// ProbeHealthTask checks every source's reachability in the background so
// that outages show up in the logs before a user hits them.
type ProbeHealthTask struct {
	Task
	prober HealthProber
}

func NewProbeHealthTask(prober HealthProber) *ProbeHealthTask {
	return &ProbeHealthTask{
		Task:   NewTask(TaskTypeProbeHealth, ""),
		prober: prober,
	}
}

func (t *ProbeHealthTask) Execute(ctx context.Context) error {
	statuses := t.prober.Health(ctx)

	accessible := 0
	for _, status := range statuses {
		if status.Status.Accessible {
			accessible++
			continue
		}

		slog.Warn("Source is not accessible",
			"source", status.Source,
			"breaker_state", status.BreakerState,
			"error", status.Status.Error)
	}

	slog.Info("Task completed",
		"type", "ProbeHealth",
		"duration", t.GetDuration(),
		"total", len(statuses),
		"accessible", accessible)

	return nil
}
