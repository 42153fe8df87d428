package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskbridge/cloudtasks/internal/task"
)

// registerTasks populates the registry with this service's task functions.
// Registration keys must match the task paths used at enqueue time.
func registerTasks(registry *task.Registry, logger *slog.Logger) {
	registry.Register("tasks.add_numbers", func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("add_numbers expects 2 arguments, got %d", len(args))
		}
		x, xok := args[0].(float64)
		y, yok := args[1].(float64)
		if !xok || !yok {
			return nil, fmt.Errorf("add_numbers expects numeric arguments")
		}
		result := x + y
		logger.Info("added numbers", "x", x, "y", y, "result", result)
		return result, nil
	})

	registry.Register("tasks.send_notification", func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("send_notification expects user_id and message")
		}
		logger.Info("sending notification", "user_id", args[0], "message", args[1])
		return map[string]any{"status": "sent", "user_id": args[0]}, nil
	})

	registry.RegisterWithContext("tasks.greet_with_context", func(ctx context.Context, tc *task.TaskContext, args []any, kwargs map[string]any) (any, error) {
		greeting := "Hello"
		if len(args) > 0 {
			if s, ok := args[0].(string); ok {
				greeting = s
			}
		}
		return fmt.Sprintf("%s from task %s", greeting, tc.TaskResult.ID), nil
	})
}
