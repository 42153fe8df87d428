package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnregisteredTask is returned when a payload names a task path that no
// function was registered for in this process.
var ErrUnregisteredTask = errors.New("task path is not registered")

// Func is a registered task function. Args and kwargs arrive exactly as they
// were serialized at enqueue time (JSON numbers decode as float64).
type Func func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

// ContextFunc is a task function that additionally receives the in-progress
// attempt as a TaskContext, letting the task read its own ID and timing.
type ContextFunc func(ctx context.Context, tc *TaskContext, args []any, kwargs map[string]any) (any, error)

// Entry is a resolved registration.
type Entry struct {
	Call            Func
	CallWithContext ContextFunc
}

// TakesContext reports whether the registration expects a TaskContext.
func (e Entry) TakesContext() bool {
	return e.CallWithContext != nil
}

// Registry maps stable task path strings to registered functions. Paths are
// the only task reference that crosses the wire, so both the enqueueing and
// the executing process must agree on them. Registration happens at process
// startup; unknown paths are rejected at execution time.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Entry
}

// NewRegistry constructs an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]Entry),
	}
}

// Register binds a task function to a path.
func (r *Registry) Register(path string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[path] = Entry{Call: fn}
}

// RegisterWithContext binds a context-taking task function to a path.
func (r *Registry) RegisterWithContext(path string, fn ContextFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[path] = Entry{CallWithContext: fn}
}

// Resolve returns the registration for the given path.
func (r *Registry) Resolve(path string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.tasks[path]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnregisteredTask, path)
	}
	return entry, nil
}

// Paths returns all registered task paths.
// Useful for health checks and debugging.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.tasks))
	for path := range r.tasks {
		paths = append(paths, path)
	}
	return paths
}
