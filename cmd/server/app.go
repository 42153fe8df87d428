package main

import (
	"context"
	"fmt"
	"log/slog"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"

	"github.com/taskbridge/cloudtasks/internal/auth"
	"github.com/taskbridge/cloudtasks/internal/backend"
	"github.com/taskbridge/cloudtasks/internal/config"
	"github.com/taskbridge/cloudtasks/internal/detect"
	"github.com/taskbridge/cloudtasks/internal/events"
	"github.com/taskbridge/cloudtasks/internal/platform/logger"
	"github.com/taskbridge/cloudtasks/internal/task"
)

// application holds the assembled components of the task handler service.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	registry *task.Registry
	executor *task.Executor
	backend  *backend.CloudTasksBackend
	verifier auth.TokenVerifier

	tasksClient *cloudtasks.Client
}

// initializeApp loads configuration and wires the application components.
func initializeApp(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server)

	emitter := events.NewEmitter(log)
	emitter.Register(events.NewLogObserver(log))

	registry := task.NewRegistry()
	registerTasks(registry, log)

	executor := task.NewExecutor(registry, emitter, log)

	tasksClient, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud Tasks client: %w", err)
	}

	detector := detect.New()
	b, err := backend.New(ctx, "default", backend.Options{
		Project:                 cfg.Backend.Project,
		Location:                cfg.Backend.Location,
		TaskHandlerHost:         cfg.Backend.TaskHandlerHost,
		TaskHandlerPath:         cfg.Backend.TaskHandlerPath,
		OIDCServiceAccountEmail: cfg.Backend.OIDCServiceAccountEmail,
		OIDCAudience:            cfg.Backend.OIDCAudience,
	}, detector, tasksClient, emitter, log)
	if err != nil {
		closeErr := tasksClient.Close()
		if closeErr != nil {
			log.Error("failed to close Cloud Tasks client", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to construct Cloud Tasks backend: %w", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"task_handler_path", cfg.Backend.TaskHandlerPath,
		"registered_tasks", registry.Paths())

	return &application{
		config:      cfg,
		logger:      log,
		registry:    registry,
		executor:    executor,
		backend:     b,
		verifier:    auth.GoogleVerifier{},
		tasksClient: tasksClient,
	}, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.tasksClient != nil {
		if err := app.tasksClient.Close(); err != nil {
			app.logger.Error("failed to close Cloud Tasks client", "error", err)
		}
	}
}
