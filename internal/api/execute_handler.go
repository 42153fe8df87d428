package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/taskbridge/cloudtasks/internal/api/shared"
	"github.com/taskbridge/cloudtasks/internal/task"
)

// ExecuteTaskResponse is the success body for an executed task.
type ExecuteTaskResponse struct {
	Status string `json:"status"`
	TaskID string `json:"task_id"`
}

// FailedTaskResponse reports a task attempt that ran and failed. It is sent
// with a 500 so Cloud Tasks redelivers the task per the queue's retry policy;
// this module has no retry opinion of its own.
type FailedTaskResponse struct {
	Status string       `json:"status"`
	TaskID string       `json:"task_id"`
	Errors []task.Error `json:"errors"`
}

// ExecuteTaskHandler receives task payloads POSTed by Cloud Tasks and runs
// them synchronously: the response is not written until the task function
// returns, so task duration directly extends request latency. Bounding
// long-running tasks is the task author's job (e.g. via the queue's dispatch
// deadline).
type ExecuteTaskHandler struct {
	executor *task.Executor
	logger   *slog.Logger
}

// NewExecuteTaskHandler creates a new ExecuteTaskHandler.
func NewExecuteTaskHandler(executor *task.Executor, logger *slog.Logger) *ExecuteTaskHandler {
	return &ExecuteTaskHandler{
		executor: executor,
		logger:   logger.With("component", "execute_task_handler"),
	}
}

// ExecuteTask handles POST requests from Cloud Tasks.
func (h *ExecuteTaskHandler) ExecuteTask(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		shared.RespondWithDetail(w, r, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	payload, err := task.DecodePayload(body)
	if err != nil {
		shared.RespondWithDetail(w, r, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	workerID := task.RandomID()

	result, success, err := h.executor.Execute(r.Context(), payload, workerID)
	if err != nil {
		// The task never ran: unresolvable path or registration mismatch.
		// Distinguished from a task failure by the absence of an errors list.
		h.logger.Error("task execution failed",
			"task_id", payload.TaskID,
			"task_path", payload.TaskPath,
			"error", err)
		shared.RespondWithDetail(w, r, http.StatusInternalServerError, "Task execution failed", err.Error())
		return
	}

	if success {
		shared.RespondWithJSON(w, r, http.StatusOK, ExecuteTaskResponse{
			Status: "success",
			TaskID: result.ID,
		})
		return
	}

	// 500 signals Cloud Tasks to retry delivery.
	shared.RespondWithJSON(w, r, http.StatusInternalServerError, FailedTaskResponse{
		Status: "failed",
		TaskID: result.ID,
		Errors: result.Errors,
	})
}
