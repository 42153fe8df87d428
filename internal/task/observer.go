package task

import "context"

// Observer receives task lifecycle notifications. The executor and backend
// call observers synchronously; implementations must not block. Observer
// failures never affect the task outcome.
type Observer interface {
	// OnTaskEnqueued fires after a task was accepted by Cloud Tasks,
	// with the READY result.
	OnTaskEnqueued(ctx context.Context, result Result)

	// OnTaskStarted fires just before the task function runs,
	// with the RUNNING result.
	OnTaskStarted(ctx context.Context, result Result)

	// OnTaskFinished fires after the attempt, with the terminal result.
	OnTaskFinished(ctx context.Context, result Result)
}

type nopObserver struct{}

func (nopObserver) OnTaskEnqueued(context.Context, Result) {}
func (nopObserver) OnTaskStarted(context.Context, Result)  {}
func (nopObserver) OnTaskFinished(context.Context, Result) {}
