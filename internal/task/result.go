package task

import "time"

// Status represents the current state of a task attempt
type Status string

// Possible task status values
const (
	StatusReady      Status = "READY"
	StatusRunning    Status = "RUNNING"
	StatusSuccessful Status = "SUCCESSFUL"
	StatusFailed     Status = "FAILED"
)

// Error describes one failure of a task attempt.
type Error struct {
	// Exception is the Go type of the failure cause.
	Exception string `json:"exception"`

	// Traceback is the formatted failure detail: the error chain for a
	// returned error, the captured stack for a recovered panic.
	Traceback string `json:"traceback"`
}

// Task describes an enqueueable unit of work by its registry path and
// scheduling attributes. It carries no function value: the executing process
// resolves Path against its own registry.
type Task struct {
	// Path is the registry key the executor resolves to a function.
	Path string

	// QueueName selects the Cloud Tasks queue.
	QueueName string

	// Priority is recorded in the payload but has no effect on Cloud Tasks
	// scheduling; the backend declares no priority support.
	Priority int

	// TakesContext requests a TaskContext as the function's first argument.
	TakesContext bool

	// RunAfter defers execution to a future time when set.
	RunAfter *time.Time
}

// Result is the ephemeral record of one task attempt. Two independent Results
// exist per logical task: one constructed READY at enqueue time and one
// constructed at execution time, sharing only the ID. Results are values;
// state transitions return a new Result rather than mutating in place, and
// the only legal sequence is READY -> RUNNING -> SUCCESSFUL or FAILED.
type Result struct {
	TaskPath        string
	ID              string
	Status          Status
	EnqueuedAt      *time.Time
	StartedAt       *time.Time
	FinishedAt      *time.Time
	LastAttemptedAt *time.Time
	Args            []any
	Kwargs          map[string]any
	Backend         string
	Errors          []Error
	WorkerIDs       []string

	// ReturnValue holds the task function's return value once the attempt
	// has reached StatusSuccessful.
	ReturnValue any
}

// NewReadyResult builds the READY record returned from an enqueue call.
func NewReadyResult(p Payload) Result {
	return Result{
		TaskPath:   p.TaskPath,
		ID:         p.TaskID,
		Status:     StatusReady,
		EnqueuedAt: p.EnqueuedAt,
		Args:       p.Args,
		Kwargs:     p.Kwargs,
		Backend:    p.Backend,
		Errors:     []Error{},
		WorkerIDs:  []string{},
	}
}

// Started transitions the record to RUNNING for the given worker.
func (r Result) Started(workerID string, now time.Time) Result {
	r.StartedAt = &now
	r.LastAttemptedAt = &now
	r.Status = StatusRunning
	r.WorkerIDs = append(append([]string{}, r.WorkerIDs...), workerID)
	return r
}

// Succeeded transitions the record to SUCCESSFUL with the task's return value.
func (r Result) Succeeded(value any, now time.Time) Result {
	r.FinishedAt = &now
	r.Status = StatusSuccessful
	r.ReturnValue = value
	return r
}

// Failed transitions the record to FAILED, appending one error record.
// The executor makes a single attempt, so a Result never accumulates more
// than one error locally; redelivery produces a fresh Result.
func (r Result) Failed(taskErr Error, now time.Time) Result {
	r.FinishedAt = &now
	r.Status = StatusFailed
	r.Errors = append(append([]Error{}, r.Errors...), taskErr)
	return r
}
