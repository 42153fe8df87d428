// Package backend implements the Cloud Tasks enqueue adapter. Enqueueing a
// task serializes its invocation into a JSON payload carried by a Cloud Tasks
// HTTP-target task; durability, scheduling, delivery and retry all belong to
// Cloud Tasks from that point on. The backend holds no state of its own.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/taskbridge/cloudtasks/internal/detect"
	"github.com/taskbridge/cloudtasks/internal/task"
)

// DefaultTaskHandlerPath is the handler path Cloud Tasks posts task payloads
// to when no explicit path is configured.
const DefaultTaskHandlerPath = "/cloudtasks/execute/"

// ErrImproperlyConfigured marks fatal configuration errors raised at backend
// construction time. They are never retried.
var ErrImproperlyConfigured = errors.New("improperly configured")

// TasksClient is the slice of the Cloud Tasks API the backend needs.
// *cloudtasks.Client satisfies it; tests substitute a fake. Making the client
// an explicit constructor dependency keeps the cloud SDK out of the package's
// import-time behavior and lets callers own its lifecycle.
type TasksClient interface {
	CreateTask(ctx context.Context, req *cloudtaskspb.CreateTaskRequest, opts ...gax.CallOption) (*cloudtaskspb.Task, error)
}

// Options configures a CloudTasksBackend. Empty fields are auto-detected from
// the GCP environment where possible.
type Options struct {
	// Project is the GCP project owning the queues.
	Project string

	// Location is the GCP region of the queues.
	Location string

	// TaskHandlerHost is the externally reachable base URL Cloud Tasks
	// delivers execution requests to.
	TaskHandlerHost string

	// TaskHandlerPath is the handler path under TaskHandlerHost.
	// Defaults to DefaultTaskHandlerPath.
	TaskHandlerPath string

	// OIDCServiceAccountEmail is the identity Cloud Tasks mints identity
	// tokens as when delivering tasks. Defaults to the environment's default
	// service account; when neither is available tasks are delivered
	// unauthenticated.
	OIDCServiceAccountEmail string

	// OIDCAudience is the audience claim of minted identity tokens.
	// Defaults to TaskHandlerHost.
	OIDCAudience string
}

// CloudTasksBackend enqueues tasks to Google Cloud Tasks.
//
// Capabilities: deferred execution is supported (Cloud Tasks schedule_time),
// result retrieval is not (no storage exists to hold results), and priority
// is not (Cloud Tasks has no priority; a requested priority travels in the
// payload for transparency but never influences scheduling).
type CloudTasksBackend struct {
	alias    string
	client   TasksClient
	observer task.Observer
	logger   *slog.Logger
	now      func() time.Time

	project                 string
	location                string
	taskHandlerHost         string
	taskHandlerPath         string
	oidcServiceAccountEmail string
	oidcAudience            string
}

// New constructs a CloudTasksBackend, resolving each option against the
// environment detector when not set explicitly. Project, location and task
// handler host are required; construction fails immediately when any of them
// is still unknown after detection. A nil observer disables notifications.
func New(
	ctx context.Context,
	alias string,
	opts Options,
	detector *detect.Detector,
	client TasksClient,
	observer task.Observer,
	logger *slog.Logger,
) (*CloudTasksBackend, error) {
	project := opts.Project
	if project == "" {
		project = detector.Project(ctx)
	}
	if project == "" {
		return nil, fmt.Errorf(
			"%w: a Cloud Tasks project is required; set the CLOUD_TASKS_PROJECT option or the GOOGLE_CLOUD_PROJECT environment variable",
			ErrImproperlyConfigured)
	}

	location := opts.Location
	if location == "" {
		location = detector.Location(ctx)
	}
	if location == "" {
		return nil, fmt.Errorf(
			"%w: a Cloud Tasks location is required; set the CLOUD_TASKS_LOCATION option or environment variable",
			ErrImproperlyConfigured)
	}

	host := opts.TaskHandlerHost
	if host == "" {
		host = detector.TaskHandlerHost(ctx)
	}
	if host == "" {
		return nil, fmt.Errorf(
			"%w: a task handler host is required; set the TASK_HANDLER_HOST option or deploy to Cloud Run/App Engine for auto-detection",
			ErrImproperlyConfigured)
	}

	path := opts.TaskHandlerPath
	if path == "" {
		path = DefaultTaskHandlerPath
	}

	email := opts.OIDCServiceAccountEmail
	if email == "" {
		email = detector.DefaultServiceAccount(ctx)
	}

	audience := opts.OIDCAudience
	if audience == "" {
		audience = host
	}

	if observer == nil {
		observer = nopObserver{}
	}

	return &CloudTasksBackend{
		alias:                   alias,
		client:                  client,
		observer:                observer,
		logger:                  logger.With("component", "cloudtasks_backend", "backend", alias),
		now:                     time.Now,
		project:                 project,
		location:                location,
		taskHandlerHost:         host,
		taskHandlerPath:         path,
		oidcServiceAccountEmail: email,
		oidcAudience:            audience,
	}, nil
}

// Alias returns the backend's alias as recorded in payloads it produces.
func (b *CloudTasksBackend) Alias() string { return b.alias }

// SupportsDefer reports that deferred execution is available.
func (b *CloudTasksBackend) SupportsDefer() bool { return true }

// SupportsAsync reports that asynchronous tasks are available.
func (b *CloudTasksBackend) SupportsAsync() bool { return true }

// SupportsGetResult reports that result retrieval is unavailable:
// nothing stores results, so there is nowhere to get them from.
func (b *CloudTasksBackend) SupportsGetResult() bool { return false }

// SupportsPriority reports that priority scheduling is unavailable.
func (b *CloudTasksBackend) SupportsPriority() bool { return false }

// Enqueue submits one task invocation to Cloud Tasks and returns its READY
// result. Errors from the Cloud Tasks client propagate unmodified: enqueue
// submission has no local retry, only delivery (owned by Cloud Tasks) does.
func (b *CloudTasksBackend) Enqueue(ctx context.Context, t task.Task, args []any, kwargs map[string]any) (task.Result, error) {
	if err := b.validateTask(t); err != nil {
		return task.Result{}, err
	}

	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	now := b.now().UTC()
	payload := task.Payload{
		TaskID:       task.RandomID(),
		TaskPath:     t.Path,
		Args:         args,
		Kwargs:       kwargs,
		QueueName:    t.QueueName,
		Backend:      b.alias,
		Priority:     t.Priority,
		TakesContext: t.TakesContext,
		EnqueuedAt:   &now,
	}

	body, err := payload.Encode()
	if err != nil {
		return task.Result{}, err
	}

	executeURL := strings.TrimRight(b.taskHandlerHost, "/") + b.taskHandlerPath

	httpRequest := &cloudtaskspb.HttpRequest{
		HttpMethod: cloudtaskspb.HttpMethod_POST,
		Url:        executeURL,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
	if b.oidcServiceAccountEmail != "" {
		httpRequest.AuthorizationHeader = &cloudtaskspb.HttpRequest_OidcToken{
			OidcToken: &cloudtaskspb.OidcToken{
				ServiceAccountEmail: b.oidcServiceAccountEmail,
				Audience:            b.oidcAudience,
			},
		}
	}

	ctTask := &cloudtaskspb.Task{
		MessageType: &cloudtaskspb.Task_HttpRequest{HttpRequest: httpRequest},
	}
	if t.RunAfter != nil {
		ctTask.ScheduleTime = timestamppb.New(*t.RunAfter)
	}

	req := &cloudtaskspb.CreateTaskRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/queues/%s", b.project, b.location, t.QueueName),
		Task:   ctTask,
	}

	if _, err := b.client.CreateTask(ctx, req); err != nil {
		return task.Result{}, err
	}

	result := task.NewReadyResult(payload)

	b.logger.Debug("task enqueued",
		"task_id", payload.TaskID,
		"task_path", t.Path,
		"queue_name", t.QueueName)
	b.observer.OnTaskEnqueued(ctx, result)

	return result, nil
}

// validateTask rejects descriptors the backend cannot transport. A non-zero
// priority passes validation: it is carried in the payload even though Cloud
// Tasks will not act on it.
func (b *CloudTasksBackend) validateTask(t task.Task) error {
	if t.Path == "" {
		return fmt.Errorf("task path must not be empty")
	}
	if t.QueueName == "" {
		return fmt.Errorf("task queue name must not be empty")
	}
	return nil
}

type nopObserver struct{}

func (nopObserver) OnTaskEnqueued(context.Context, task.Result) {}
func (nopObserver) OnTaskStarted(context.Context, task.Result)  {}
func (nopObserver) OnTaskFinished(context.Context, task.Result) {}
