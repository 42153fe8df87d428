package task

// TaskContext exposes the in-progress attempt to a context-taking task
// function, mirroring the record the executor is building. The function sees
// its own ID, worker and timing data, but the Result it holds is a value
// snapshot: changing it has no effect on the attempt's outcome.
type TaskContext struct {
	TaskResult Result
}
