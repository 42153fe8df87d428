package events

import (
	"context"
	"log/slog"

	"github.com/taskbridge/cloudtasks/internal/task"
)

// LogObserver writes one structured log line per task lifecycle event.
// It is registered by default so every enqueue and attempt leaves a trace
// even when no application observer is configured.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a LogObserver writing through the given logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger.With("component", "task_events")}
}

// OnTaskEnqueued implements task.Observer.
func (l *LogObserver) OnTaskEnqueued(ctx context.Context, result task.Result) {
	l.logger.InfoContext(ctx, "task enqueued",
		"task_id", result.ID,
		"task_path", result.TaskPath,
		"backend", result.Backend)
}

// OnTaskStarted implements task.Observer.
func (l *LogObserver) OnTaskStarted(ctx context.Context, result task.Result) {
	l.logger.InfoContext(ctx, "task started",
		"task_id", result.ID,
		"task_path", result.TaskPath,
		"worker_ids", result.WorkerIDs)
}

// OnTaskFinished implements task.Observer.
func (l *LogObserver) OnTaskFinished(ctx context.Context, result task.Result) {
	attrs := []any{
		"task_id", result.ID,
		"task_path", result.TaskPath,
		"status", string(result.Status),
	}
	if result.Status == task.StatusFailed {
		if len(result.Errors) > 0 {
			attrs = append(attrs, "error", result.Errors[0].Exception)
		}
		l.logger.ErrorContext(ctx, "task finished", attrs...)
		return
	}
	l.logger.InfoContext(ctx, "task finished", attrs...)
}
