package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiMiddleware "github.com/taskbridge/cloudtasks/internal/api/middleware"
	"github.com/taskbridge/cloudtasks/internal/auth"
	"github.com/taskbridge/cloudtasks/internal/task"
)

type stubVerifier struct {
	claims *auth.Claims
	err    error
}

func (s *stubVerifier) Verify(context.Context, string, string) (*auth.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRegistry registers the task fixtures the endpoint tests dispatch to.
// taskCalls counts executions of tasks.counted across deliveries.
func newTestRegistry(taskCalls *int) *task.Registry {
	registry := task.NewRegistry()
	registry.Register("tasks.ok", func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		return "done", nil
	})
	registry.Register("tasks.fail", func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		return nil, errors.New("x")
	})
	registry.Register("tasks.counted", func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		*taskCalls++
		return *taskCalls, nil
	})
	return registry
}

// newTestRouter wires the execute handler behind the OIDC middleware the way
// the server router does.
func newTestRouter(registry *task.Registry, verifier auth.TokenVerifier, audience string) http.Handler {
	logger := testLogger()
	executor := task.NewExecutor(registry, nil, logger)
	handler := NewExecuteTaskHandler(executor, logger)
	oidcAuth := apiMiddleware.NewOIDCAuthMiddleware(verifier, audience, logger)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(oidcAuth.Authenticate)
		r.Post("/cloudtasks/execute/", handler.ExecuteTask)
	})
	return r
}

func postPayload(t *testing.T, router http.Handler, p task.Payload, header string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := p.Encode()
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/cloudtasks/execute/", bytes.NewReader(body))
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func googleVerifier() *stubVerifier {
	return &stubVerifier{claims: &auth.Claims{Issuer: "https://accounts.google.com"}}
}

func TestExecuteTaskSuccess(t *testing.T) {
	t.Parallel()

	var calls int
	router := newTestRouter(newTestRegistry(&calls), googleVerifier(), "https://my-service.run.app")

	w := postPayload(t, router, task.Payload{TaskID: "task-1", TaskPath: "tasks.ok"}, "Bearer good-token")

	assert.Equal(t, http.StatusOK, w.Code)

	var body ExecuteTaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "task-1", body.TaskID)
}

func TestExecuteTaskFailureReturns500(t *testing.T) {
	t.Parallel()

	var calls int
	router := newTestRouter(newTestRegistry(&calls), googleVerifier(), "https://my-service.run.app")

	w := postPayload(t, router, task.Payload{TaskID: "task-1", TaskPath: "tasks.fail"}, "Bearer good-token")

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body FailedTaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "failed", body.Status)
	assert.Equal(t, "task-1", body.TaskID)
	require.Len(t, body.Errors, 1)
	assert.NotEmpty(t, body.Errors[0].Exception)
	assert.NotEmpty(t, body.Errors[0].Traceback)
}

func TestExecuteTaskMalformedJSON(t *testing.T) {
	t.Parallel()

	var calls int
	router := newTestRouter(newTestRegistry(&calls), googleVerifier(), "https://my-service.run.app")

	r := httptest.NewRequest(http.MethodPost, "/cloudtasks/execute/", bytes.NewReader([]byte("{not json")))
	r.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid JSON", body["error"])
	assert.NotEmpty(t, body["detail"])
}

func TestExecuteTaskRequiresTokenWhenAudienceConfigured(t *testing.T) {
	t.Parallel()

	var calls int
	router := newTestRouter(newTestRegistry(&calls), googleVerifier(), "https://my-service.run.app")

	w := postPayload(t, router, task.Payload{TaskID: "task-1", TaskPath: "tasks.ok"}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Unauthorized", body["error"])
}

func TestExecuteTaskUnregisteredPathIsInfraError(t *testing.T) {
	t.Parallel()

	var calls int
	router := newTestRouter(newTestRegistry(&calls), googleVerifier(), "https://my-service.run.app")

	w := postPayload(t, router, task.Payload{TaskID: "task-1", TaskPath: "tasks.missing"}, "Bearer good-token")

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// Infra errors have no structured errors list, unlike task failures.
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Task execution failed", body["error"])
	assert.NotContains(t, body, "errors")
}

// TestExecuteTaskRedelivery pins down that redelivering a payload re-executes
// the task: this endpoint offers no idempotence.
func TestExecuteTaskRedelivery(t *testing.T) {
	t.Parallel()

	var calls int
	router := newTestRouter(newTestRegistry(&calls), googleVerifier(), "https://my-service.run.app")
	payload := task.Payload{TaskID: "same-id", TaskPath: "tasks.counted"}

	w := postPayload(t, router, payload, "Bearer good-token")
	assert.Equal(t, http.StatusOK, w.Code)

	w = postPayload(t, router, payload, "Bearer good-token")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 2, calls)
}

func TestExecuteTaskNoAudienceSkipsAuth(t *testing.T) {
	t.Parallel()

	var calls int
	router := newTestRouter(newTestRegistry(&calls), &stubVerifier{err: errors.New("must not be called")}, "")

	w := postPayload(t, router, task.Payload{TaskID: "task-1", TaskPath: "tasks.ok"}, "")

	assert.Equal(t, http.StatusOK, w.Code)
}
