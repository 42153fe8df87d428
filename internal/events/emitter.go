// Package events fans task lifecycle notifications out to registered
// observers. It replaces ad-hoc signal dispatch with an explicit observer
// contract: anything interested in task state implements task.Observer and
// registers on an Emitter at startup.
package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/taskbridge/cloudtasks/internal/task"
)

// Emitter is an in-memory fan-out implementation of task.Observer.
// Observer failures are isolated: every registered observer sees every
// notification regardless of what the others do.
type Emitter struct {
	observers []task.Observer
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewEmitter creates an Emitter with no registered observers.
func NewEmitter(logger *slog.Logger) *Emitter {
	return &Emitter{
		observers: make([]task.Observer, 0),
		logger:    logger.With("component", "event_emitter"),
	}
}

// Register adds an observer to receive task lifecycle notifications.
func (e *Emitter) Register(observer task.Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, observer)
	e.logger.Debug("registered task observer", "observer_count", len(e.observers))
}

// OnTaskEnqueued implements task.Observer.
func (e *Emitter) OnTaskEnqueued(ctx context.Context, result task.Result) {
	e.each(func(o task.Observer) { o.OnTaskEnqueued(ctx, result) })
}

// OnTaskStarted implements task.Observer.
func (e *Emitter) OnTaskStarted(ctx context.Context, result task.Result) {
	e.each(func(o task.Observer) { o.OnTaskStarted(ctx, result) })
}

// OnTaskFinished implements task.Observer.
func (e *Emitter) OnTaskFinished(ctx context.Context, result task.Result) {
	e.each(func(o task.Observer) { o.OnTaskFinished(ctx, result) })
}

func (e *Emitter) each(notify func(task.Observer)) {
	e.mu.RLock()
	observers := make([]task.Observer, len(e.observers))
	copy(observers, e.observers)
	e.mu.RUnlock()

	for _, observer := range observers {
		notify(observer)
	}
}
