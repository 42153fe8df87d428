package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Executor runs payloads delivered by Cloud Tasks. One Execute call makes
// exactly one attempt; retries come only from Cloud Tasks redelivering the
// same payload after a failure response. Redelivered task IDs are not
// deduplicated here, so task functions must be idempotent when the queue's
// at-least-once delivery matters to them.
type Executor struct {
	registry *Registry
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// NewExecutor creates an Executor dispatching to the given registry.
// A nil observer disables lifecycle notifications.
func NewExecutor(registry *Registry, observer Observer, logger *slog.Logger) *Executor {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Executor{
		registry: registry,
		observer: observer,
		logger:   logger.With("component", "task_executor"),
		now:      time.Now,
	}
}

// Execute resolves and runs the payload's task function under the given
// worker ID. The returned bool reports whether the task function itself
// succeeded. A non-nil error means the task never ran (unresolvable path,
// registration mismatch) and is the caller's infrastructure failure to
// report; task-function failures are captured on the Result instead.
func (e *Executor) Execute(ctx context.Context, p Payload, workerID string) (Result, bool, error) {
	entry, err := e.registry.Resolve(p.TaskPath)
	if err != nil {
		return Result{}, false, err
	}
	if p.TakesContext != entry.TakesContext() {
		return Result{}, false, fmt.Errorf(
			"task %q registration mismatch: payload takes_context=%t", p.TaskPath, p.TakesContext)
	}

	result := NewReadyResult(p).Started(workerID, e.now().UTC())
	e.observer.OnTaskStarted(ctx, result)

	value, taskErr := e.invoke(ctx, entry, p, result)

	if taskErr != nil {
		result = result.Failed(newError(taskErr), e.now().UTC())
		e.logger.Error("task failed",
			"task_id", result.ID,
			"task_path", p.TaskPath,
			"error", result.Errors[0].Exception)
		e.observer.OnTaskFinished(ctx, result)
		return result, false, nil
	}

	result = result.Succeeded(value, e.now().UTC())
	e.logger.Info("task completed successfully",
		"task_id", result.ID,
		"task_path", p.TaskPath)
	e.observer.OnTaskFinished(ctx, result)
	return result, true, nil
}

// invoke calls the task function, converting a panic into an error so a
// misbehaving task is recorded as FAILED instead of killing the request.
func (e *Executor) invoke(ctx context.Context, entry Entry, p Payload, result Result) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()

	if entry.TakesContext() {
		return entry.CallWithContext(ctx, &TaskContext{TaskResult: result}, p.Args, p.Kwargs)
	}
	return entry.Call(ctx, p.Args, p.Kwargs)
}

// panicError wraps a recovered panic value with its stack.
type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string {
	return fmt.Sprintf("task panicked: %v", p.value)
}

// newError builds the error record appended to a FAILED result.
func newError(err error) Error {
	if pe, ok := err.(*panicError); ok {
		return Error{
			Exception: fmt.Sprintf("panic: %T", pe.value),
			Traceback: fmt.Sprintf("%v\n%s", pe.value, pe.stack),
		}
	}
	return Error{
		Exception: fmt.Sprintf("%T", err),
		Traceback: err.Error(),
	}
}
