// Package task defines the wire payload exchanged with Cloud Tasks, the
// result record describing one task attempt, the registry that maps routable
// task paths to registered Go functions, and the executor that runs a
// delivered payload. Nothing in this package persists state: the payload is
// the only channel carrying a task between enqueue and execution.
package task
